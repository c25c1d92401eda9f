package orderbook

import "fmt"

// PriceLevel is a FIFO queue of resting orders at a single price.
// Orders are always enqueued in strictly increasing submission sequence,
// so FIFO order within a level is exactly time-priority order.
type PriceLevel struct {
	Price    int64
	head     *Order
	tail     *Order
	totalQty int64
	count    int
}

func (p *PriceLevel) Enqueue(o *Order) {
	if p.head == nil {
		p.head = o
		p.tail = o
	} else {
		p.tail.next = o
		o.prev = p.tail
		p.tail = o
	}
	p.totalQty += o.Qty
	p.count++
}

// Head returns the earliest resting order at this price, nil when empty.
func (p *PriceLevel) Head() *Order {
	return p.head
}

// Unlink removes an order from anywhere in the queue.
func (p *PriceLevel) Unlink(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		p.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		p.tail = o.prev
	}
	o.next = nil
	o.prev = nil
	p.totalQty -= o.Qty
	p.count--
}

// reduce accounts for a partial fill of a resting order at this level.
func (p *PriceLevel) reduce(qty int64) {
	p.totalQty -= qty
	if p.totalQty < 0 {
		p.totalQty = 0
	}
}

func (p *PriceLevel) Empty() bool {
	return p.head == nil
}

func (p *PriceLevel) TotalQty() int64 {
	return p.totalQty
}

func (p *PriceLevel) Count() int {
	return p.count
}

func (p *PriceLevel) String() string {
	return fmt.Sprintf("level{price=%d qty=%d orders=%d}", p.Price, p.totalQty, p.count)
}
