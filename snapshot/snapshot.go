// Package snapshot persists a point-in-time image of the engine: every
// resting order plus the counters needed to resume id assignment, trade
// numbering and the reference price. A snapshot together with the WAL
// records appended after it fully reconstructs engine state.
package snapshot

import (
	"time"

	"matchbook/domain/engine"
)

type Snapshot struct {
	// WALSeq is the last WAL sequence covered by this snapshot. Replay
	// skips records at or below it.
	WALSeq uint64

	LastOrderID uint64
	LastTradeID uint64
	RefPrice    float64
	RefVolume   int64
	Orders      []engine.RestingOrder
	Created     time.Time
}
