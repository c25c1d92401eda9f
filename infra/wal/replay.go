package wal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

type ReplayHandler func(*Record) error

// ErrCorruptRecord marks a CRC mismatch or insane frame mid-log. A bad
// frame at the tail of the last segment is treated as a torn final write
// and ends the replay without error.
var ErrCorruptRecord = errors.New("wal: corrupt record")

// maxFrameLen bounds the payload length field before it is trusted for
// allocation. Commands are tens of bytes; anything near this limit is
// corruption, not data.
const maxFrameLen = 1 << 20

// Replay streams every record in sequence order through fn and returns
// the last sequence seen.
func Replay(dir string, fn ReplayHandler) (lastSeq uint64, err error) {
	indexes, err := segmentIndexes(dir)
	if err != nil {
		return 0, err
	}

	for i, idx := range indexes {
		last := i == len(indexes)-1
		f, err := os.Open(segmentPath(dir, idx))
		if err != nil {
			return lastSeq, err
		}

		for {
			rec, err := readRecord(f)
			if err != nil {
				if err == io.EOF {
					break
				}
				// A short or corrupt frame at the very tail is a torn
				// write from a crash; everything before it was valid.
				if last && (errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, ErrCorruptRecord)) {
					break
				}
				_ = f.Close()
				return lastSeq, err
			}

			if rec.Seq <= lastSeq {
				_ = f.Close()
				return lastSeq, fmt.Errorf("wal: non-monotonic seq %d after %d", rec.Seq, lastSeq)
			}
			lastSeq = rec.Seq

			if err := fn(rec); err != nil {
				_ = f.Close()
				return lastSeq, err
			}
		}
		_ = f.Close()
	}

	return lastSeq, nil
}

func readRecord(r io.Reader) (*Record, error) {
	header := make([]byte, 21)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	t := RecordType(header[0])
	seq := binary.BigEndian.Uint64(header[1:9])
	ts := binary.BigEndian.Uint64(header[9:17])
	l := binary.BigEndian.Uint32(header[17:21])

	// The length field is not covered by a checksum of its own; reject
	// it before allocating on its word.
	if l > maxFrameLen {
		return nil, ErrCorruptRecord
	}

	data := make([]byte, l+4)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}

	payload := data[:l]
	crc := binary.BigEndian.Uint32(data[l:])

	if !checksumValid(append(header, payload...), crc) {
		return nil, ErrCorruptRecord
	}

	return &Record{
		Type: t,
		Seq:  seq,
		Time: int64(ts),
		Data: payload,
	}, nil
}

// maxSeqInSegment scans one segment and returns the highest sequence in
// it. Used to resume numbering on open and for snapshot truncation.
func maxSeqInSegment(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var max uint64
	for {
		header := make([]byte, 21)
		if _, err := io.ReadFull(f, header); err != nil {
			if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
				return max, nil
			}
			return max, err
		}

		payloadLen := binary.BigEndian.Uint32(header[17:21])
		if payloadLen > maxFrameLen {
			// Corrupt frame; everything before it still counts.
			return max, nil
		}

		seq := binary.BigEndian.Uint64(header[1:9])
		if seq > max {
			max = seq
		}

		if _, err := f.Seek(int64(payloadLen+4), io.SeekCurrent); err != nil {
			return max, err
		}
	}
}
