package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"matchbook/domain/engine"
)

// Load reads the snapshot in dir. A missing file is not an error: it
// returns (nil, nil) and the caller starts from an empty book.
func Load(dir string) (*Snapshot, error) {
	f, err := os.Open(filepath.Join(dir, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Apply rebuilds an engine from a snapshot.
func Apply(s *Snapshot, eng *engine.Engine) error {
	return eng.Restore(s.Orders, s.LastOrderID, s.LastTradeID, s.RefPrice, s.RefVolume)
}
