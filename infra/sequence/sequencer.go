package sequence

import "sync/atomic"

// Sequencer generates strictly monotonic ids. It is owned by a single
// engine instance and never reset during its lifetime; Reset exists only
// for rebuilding state from a snapshot before the engine goes live.
type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer; the first Next after New(0) returns 1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next id.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued id.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}

// Reset sets the sequencer to a specific value. Only used during replay.
func (s *Sequencer) Reset(v uint64) {
	s.next.Store(v)
}
