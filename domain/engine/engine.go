package engine

import (
	"sync"

	"matchbook/domain/orderbook"
	"matchbook/infra/sequence"
)

// Engine is the continuous double-auction matching core for a single
// instrument. It owns both side books, the trade ledger, the reference
// price tracker and the id sequencer.
//
// Matching requires a globally consistent sequential view of both books,
// so Submit and Cancel serialize on one mutex and run to completion
// before returning. Multi-instrument deployments shard one Engine per
// instrument.
type Engine struct {
	mu     sync.Mutex
	bids   *orderbook.SideBook
	asks   *orderbook.SideBook
	seq    *sequence.Sequencer
	ledger *Ledger
	ref    *RefTracker
}

// BookEntry is one resting order in a read-only book snapshot.
type BookEntry struct {
	OrderID uint64 `json:"order_id"`
	Price   int64  `json:"price"`
	Qty     int64  `json:"qty"`
}

// RestingOrder is a detached copy of a resting order, used by snapshots.
type RestingOrder struct {
	ID    uint64
	Side  orderbook.Side
	Price int64
	Qty   int64
	Seq   uint64
}

// New creates an engine seeded with the instrument's starting reference
// price. Counters start at zero and are never reset while the engine lives.
func New(initialRefPrice float64) *Engine {
	return &Engine{
		bids:   orderbook.NewSideBook(orderbook.Buy),
		asks:   orderbook.NewSideBook(orderbook.Sell),
		seq:    sequence.New(0),
		ledger: NewLedger(),
		ref:    NewRefTracker(initialRefPrice),
	}
}

// Validate applies the submission preconditions without touching state.
func Validate(price, qty int64) error {
	if qty < 1 || price <= 0 {
		return orderbook.ErrInvalidOrder
	}
	return nil
}

// Submit accepts a limit order, crosses it against the opposite book and
// rests any residual on its own side. The returned id is assigned only
// after validation passes: a rejected submission consumes no id and
// mutates nothing.
func (e *Engine) Submit(side orderbook.Side, price, qty int64) (uint64, error) {
	if err := Validate(price, qty); err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.seq.Next()
	agg := &orderbook.Order{ID: id, Side: side, Price: price, Qty: qty, Seq: id}

	opp := e.book(side.Opposite())
	for agg.Qty > 0 {
		best := opp.Best()
		if best == nil || !crosses(side, price, best.Price) {
			break
		}

		traded := agg.Qty
		if best.Qty < traded {
			traded = best.Qty
		}

		agg.Qty -= traded
		opp.Reduce(best, traded)

		// Price improvement accrues to the aggressor: execution is at
		// the resting order's price.
		t := e.ledger.Append(Trade{
			AggressorID: agg.ID,
			RestingID:   best.ID,
			Price:       best.Price,
			Qty:         traded,
		})
		e.ref.Observe(t.Price, t.Qty)

		if best.Qty == 0 {
			if _, err := opp.Remove(best.ID); err != nil {
				// A filled order missing from its own book means the
				// id index and the tree disagree; state is corrupt.
				panic(err)
			}
		}
	}

	if agg.Qty > 0 {
		if err := e.book(side).Insert(agg); err != nil {
			panic(err) // fresh id, validated input: cannot fail
		}
	}
	return id, nil
}

// Cancel removes a resting order from the named side. Cancelling an id
// that is not resting there (already filled, already cancelled, or never
// seen) returns ErrOrderNotFound and mutates nothing.
func (e *Engine) Cancel(id uint64, side orderbook.Side) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.book(side).Remove(id)
	return err
}

// ReferencePrice returns the current tracked fair value.
func (e *Engine) ReferencePrice() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ref.Price()
}

// Volume returns cumulative executed quantity.
func (e *Engine) Volume() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ref.Volume()
}

// Trades returns a full ledger snapshot in execution order.
func (e *Engine) Trades() []Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Trades()
}

// TradesSince returns trades recorded after the first n. Collaborators use
// it to collect the prints of the submission they just made.
func (e *Engine) TradesSince(n int) []Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Since(n)
}

// TradeCount returns the number of trades held by the in-memory ledger.
func (e *Engine) TradeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Len()
}

// LastTradeID returns the id of the most recent trade. Unlike TradeCount
// it keeps counting across Restore, which rewinds the ledger contents but
// not its numbering.
func (e *Engine) LastTradeID() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.LastID()
}

// BookSnapshot returns the resting orders of one side in priority order.
// The copy is detached; mutating it cannot affect engine state.
func (e *Engine) BookSnapshot(side orderbook.Side) []BookEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	book := e.book(side)
	out := make([]BookEntry, 0, book.Len())
	book.Walk(func(o *orderbook.Order) bool {
		out = append(out, BookEntry{OrderID: o.ID, Price: o.Price, Qty: o.Qty})
		return true
	})
	return out
}

// Depth returns the number of resting orders on one side.
func (e *Engine) Depth(side orderbook.Side) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book(side).Len()
}

// LastSeq returns the most recently issued order id.
func (e *Engine) LastSeq() uint64 {
	return e.seq.Current()
}

// Resting returns detached copies of every resting order, bids first,
// each side in priority order. Used by the snapshotter.
func (e *Engine) Resting() []RestingOrder {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.restingLocked()
}

func (e *Engine) restingLocked() []RestingOrder {
	out := make([]RestingOrder, 0, e.bids.Len()+e.asks.Len())
	collect := func(o *orderbook.Order) bool {
		out = append(out, RestingOrder{
			ID: o.ID, Side: o.Side, Price: o.Price, Qty: o.Qty, Seq: o.Seq,
		})
		return true
	}
	e.bids.Walk(collect)
	e.asks.Walk(collect)
	return out
}

// Image is a point-in-time capture of everything a snapshot needs:
// resting orders plus every counter, taken under one lock so no submit
// can interleave between the reads.
type Image struct {
	LastOrderID uint64
	LastTradeID uint64
	RefPrice    float64
	RefVolume   int64
	Orders      []RestingOrder
}

// Image captures a consistent snapshot image of the engine.
func (e *Engine) Image() Image {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Image{
		LastOrderID: e.seq.Current(),
		LastTradeID: e.ledger.LastID(),
		RefPrice:    e.ref.Price(),
		RefVolume:   e.ref.Volume(),
		Orders:      e.restingLocked(),
	}
}

// Restore rebuilds engine state from a snapshot: resting orders are
// re-inserted with their original ids and sequences (a snapshot is
// uncrossed by construction, so no matching runs), and the id, trade and
// reference-price counters are rewound. Must be called before the engine
// goes live.
func (e *Engine) Restore(orders []RestingOrder, lastSeq, lastTradeID uint64, refPrice float64, refVolume int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.bids.Clear()
	e.asks.Clear()
	for _, r := range orders {
		o := &orderbook.Order{ID: r.ID, Side: r.Side, Price: r.Price, Qty: r.Qty, Seq: r.Seq}
		if err := e.book(r.Side).Insert(o); err != nil {
			return err
		}
	}
	e.seq.Reset(lastSeq)
	e.ledger.restore(lastTradeID)
	e.ref.Restore(refPrice, refVolume)
	return nil
}

func (e *Engine) book(side orderbook.Side) *orderbook.SideBook {
	if side == orderbook.Buy {
		return e.bids
	}
	return e.asks
}

// crosses reports whether an aggressor at limit price can trade against
// the best opposite price.
func crosses(side orderbook.Side, limit, opposite int64) bool {
	if side == orderbook.Buy {
		return opposite <= limit
	}
	return opposite >= limit
}
