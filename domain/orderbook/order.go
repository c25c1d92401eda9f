package orderbook

// Side is the direction of an order.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Opposite returns the side an incoming order crosses against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Order is a pure domain entity. Price is in ticks, Qty in lots.
// ID and Seq are assigned once at submission and never change; Qty is
// decremented by fills. An order with Qty == 0 never rests in a book.
type Order struct {
	ID    uint64
	Side  Side
	Price int64
	Qty   int64
	Seq   uint64

	next *Order
	prev *Order
}

// Next allows read-only FIFO traversal within a price level.
func (o *Order) Next() *Order {
	return o.next
}
