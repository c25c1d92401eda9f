package engine

// RefTracker maintains the instrument's reference price: a volume-weighted
// moving average over executed trades. On each trade
//
//	ref = (ref*W + price*qty) / (W + qty); W += qty
//
// where W is the running weight, seeded at 1 so the very first update is
// well-defined. Only the execution price and executed quantity enter the
// average; resting leftover quantity never does.
type RefTracker struct {
	price  float64
	weight int64
}

// NewRefTracker seeds the tracker with the instrument's starting price.
func NewRefTracker(initial float64) *RefTracker {
	return &RefTracker{price: initial, weight: 1}
}

// Observe folds one executed trade into the reference price.
func (t *RefTracker) Observe(price int64, qty int64) {
	if qty <= 0 {
		return
	}
	w := float64(t.weight)
	q := float64(qty)
	t.price = (t.price*w + float64(price)*q) / (w + q)
	t.weight += qty
}

// Price returns the current reference price.
func (t *RefTracker) Price() float64 {
	return t.price
}

// Volume returns cumulative executed quantity since engine start.
func (t *RefTracker) Volume() int64 {
	return t.weight - 1
}

// Restore rewinds the tracker to a snapshotted state.
func (t *RefTracker) Restore(price float64, volume int64) {
	t.price = price
	t.weight = volume + 1
}
