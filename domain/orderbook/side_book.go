package orderbook

// SideBook holds all resting orders of one side in price-time priority:
// best price first (highest for bids, lowest for asks), earliest submission
// first within a price. An id index makes removal O(log n) overall.
type SideBook struct {
	side   Side
	levels *rbTree
	index  map[uint64]*Order
}

func NewSideBook(side Side) *SideBook {
	return &SideBook{
		side:   side,
		levels: newRBTree(),
		index:  make(map[uint64]*Order),
	}
}

func (b *SideBook) Side() Side { return b.side }

// Insert rests an order on this side, keeping the book's total order.
func (b *SideBook) Insert(o *Order) error {
	if o == nil || o.Qty < 1 || o.Price <= 0 {
		return ErrInvalidOrder
	}
	if _, ok := b.index[o.ID]; ok {
		return ErrDuplicateOrder
	}
	b.levels.GetOrCreate(o.Price).Enqueue(o)
	b.index[o.ID] = o
	return nil
}

// Best returns the highest-priority resting order without removing it,
// nil when the book is empty.
func (b *SideBook) Best() *Order {
	var lvl *PriceLevel
	if b.side == Buy {
		lvl = b.levels.BestMax()
	} else {
		lvl = b.levels.BestMin()
	}
	if lvl == nil {
		return nil
	}
	return lvl.Head()
}

// Remove takes a specific order out of the book by id. Used by the match
// loop on full fills and by explicit cancellation.
func (b *SideBook) Remove(id uint64) (*Order, error) {
	o, ok := b.index[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	lvl := b.levels.Find(o.Price)
	lvl.Unlink(o)
	if lvl.Empty() {
		b.levels.Delete(o.Price)
	}
	delete(b.index, id)
	return o, nil
}

// Reduce decrements a resting order's quantity after a partial fill,
// clamped so it never goes below zero. A fully filled order must still be
// removed by the caller.
func (b *SideBook) Reduce(o *Order, qty int64) {
	if qty > o.Qty {
		qty = o.Qty
	}
	o.Qty -= qty
	if lvl := b.levels.Find(o.Price); lvl != nil {
		lvl.reduce(qty)
	}
}

func (b *SideBook) Empty() bool {
	return len(b.index) == 0
}

func (b *SideBook) Len() int {
	return len(b.index)
}

// Depth returns the number of distinct price levels.
func (b *SideBook) Depth() int {
	return b.levels.Size()
}

// Walk visits resting orders in priority order.
func (b *SideBook) Walk(fn func(*Order) bool) {
	visit := func(lvl *PriceLevel) bool {
		for o := lvl.Head(); o != nil; o = o.Next() {
			if !fn(o) {
				return false
			}
		}
		return true
	}
	if b.side == Buy {
		b.levels.walkDesc(visit)
	} else {
		b.levels.walkAsc(visit)
	}
}

// Clear drops every resting order (used when rebuilding from a snapshot).
func (b *SideBook) Clear() {
	b.levels.Clear()
	b.index = make(map[uint64]*Order)
}
