// Package wal is a segmented append-only log of accepted engine commands.
// Each record is framed [type:1][seq:8][time:8][len:4][payload][crc32:4];
// the CRC covers everything before it. Replaying the log through the
// deterministic engine rebuilds the book.
package wal

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type Config struct {
	Dir         string
	SegmentSize int64
}

const DefaultSegmentSize = 2 * 1024 * 1024

type WAL struct {
	dir      string
	segSize  int64
	current  *segment
	segIndex int
	nextSeq  uint64
}

// Open creates or resumes a WAL in cfg.Dir. Appends continue in the
// newest existing segment and sequence numbering continues after the
// highest sequence already on disk.
func Open(cfg Config) (*WAL, error) {
	if cfg.SegmentSize <= 0 {
		cfg.SegmentSize = DefaultSegmentSize
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	indexes, err := segmentIndexes(cfg.Dir)
	if err != nil {
		return nil, err
	}

	segIndex := 0
	var lastSeq uint64
	if len(indexes) > 0 {
		segIndex = indexes[len(indexes)-1]
		for _, idx := range indexes {
			maxSeq, err := maxSeqInSegment(segmentPath(cfg.Dir, idx))
			if err != nil {
				continue
			}
			if maxSeq > lastSeq {
				lastSeq = maxSeq
			}
		}
	}

	seg, err := openSegment(cfg.Dir, segIndex)
	if err != nil {
		return nil, err
	}

	return &WAL{
		dir:      cfg.Dir,
		segSize:  cfg.SegmentSize,
		current:  seg,
		segIndex: segIndex,
		nextSeq:  lastSeq,
	}, nil
}

// Append stamps the record with the next sequence number and writes it.
func (w *WAL) Append(r *Record) error {
	w.nextSeq++
	r.Seq = w.nextSeq

	payloadLen := uint32(len(r.Data))
	buf := make([]byte, 1+8+8+4+payloadLen+4)

	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint64(buf[1:9], r.Seq)
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.Time))
	binary.BigEndian.PutUint32(buf[17:21], payloadLen)
	copy(buf[21:], r.Data)

	crc := checksum(buf[:21+payloadLen])
	binary.BigEndian.PutUint32(buf[21+payloadLen:], crc)

	if err := w.current.append(buf); err != nil {
		return err
	}

	if w.current.offset >= w.segSize {
		return w.rotate()
	}
	return nil
}

// LastSeq returns the sequence of the most recently appended record.
func (w *WAL) LastSeq() uint64 {
	return w.nextSeq
}

// Dir returns the directory this WAL lives in.
func (w *WAL) Dir() string {
	return w.dir
}

func (w *WAL) rotate() error {
	_ = w.current.close()
	w.segIndex++

	seg, err := openSegment(w.dir, w.segIndex)
	if err != nil {
		return err
	}
	w.current = seg
	return nil
}

// TruncateBefore removes whole segments whose records are all covered by
// a snapshot at seq. The active segment is never removed.
func (w *WAL) TruncateBefore(seq uint64) error {
	indexes, err := segmentIndexes(w.dir)
	if err != nil {
		return err
	}
	for _, idx := range indexes {
		if idx == w.segIndex {
			continue
		}
		path := segmentPath(w.dir, idx)
		maxSeq, err := maxSeqInSegment(path)
		if err != nil {
			continue
		}
		if maxSeq <= seq {
			_ = os.Remove(path)
		}
	}
	return nil
}

func (w *WAL) Close() error {
	return w.current.close()
}

func segmentIndexes(dir string) ([]int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "segment-*.wal"))
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(files))
	for _, path := range files {
		var idx int
		if n, _ := fmt.Sscanf(filepath.Base(path), "segment-%d.wal", &idx); n != 1 {
			continue
		}
		out = append(out, idx)
	}
	sort.Ints(out)
	return out, nil
}
