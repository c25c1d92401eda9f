package engine

import "time"

// Trade records one execution. Trades are created once, at execution, and
// never mutated; the ledger is strictly append-only.
type Trade struct {
	ID          uint64
	AggressorID uint64
	RestingID   uint64
	Price       int64
	Qty         int64
	Seq         uint64
	Time        time.Time
}

// Ledger is the append-only, chronologically ordered sequence of executed
// trades. The full sequence is retained by value and replayable.
type Ledger struct {
	trades []Trade
	next   uint64
	now    func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{now: time.Now}
}

// Append stamps the trade with the next sequential id and records it.
func (l *Ledger) Append(t Trade) Trade {
	l.next++
	t.ID = l.next
	t.Seq = l.next
	t.Time = l.now()
	l.trades = append(l.trades, t)
	return t
}

// Trades returns a snapshot copy of the full ledger.
func (l *Ledger) Trades() []Trade {
	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Since returns a copy of all trades recorded after the first n.
func (l *Ledger) Since(n int) []Trade {
	if n < 0 {
		n = 0
	}
	if n >= len(l.trades) {
		return nil
	}
	out := make([]Trade, len(l.trades)-n)
	copy(out, l.trades[n:])
	return out
}

func (l *Ledger) Len() int {
	return len(l.trades)
}

// LastID returns the id of the most recent trade, 0 when none printed yet.
func (l *Ledger) LastID() uint64 {
	return l.next
}

// restore rewinds the id counter when rebuilding from a snapshot so trade
// ids keep increasing across restarts.
func (l *Ledger) restore(lastID uint64) {
	l.next = lastID
	l.trades = l.trades[:0]
}
