package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"matchbook/domain/engine"
)

const fileName = "snapshot.bin"

type Writer struct {
	Dir string
}

// Write persists an engine image and the WAL position it covers. The
// image must be captured atomically (Engine.Image) together with walSeq,
// otherwise replay from the pair can diverge. The file is written to a
// temp name and renamed so a crash never leaves a half snapshot behind.
func (w *Writer) Write(img engine.Image, walSeq uint64) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}

	s := Snapshot{
		WALSeq:      walSeq,
		LastOrderID: img.LastOrderID,
		LastTradeID: img.LastTradeID,
		RefPrice:    img.RefPrice,
		RefVolume:   img.RefVolume,
		Orders:      img.Orders,
		Created:     time.Now(),
	}

	tmp := filepath.Join(w.Dir, fileName+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(&s); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(w.Dir, fileName))
}
