package wal

import "time"

type RecordType uint8

const (
	RecordPlace RecordType = iota
	RecordCancel
)

// Record is one framed WAL entry. Seq is assigned by the WAL on append
// and is strictly monotonic across segments.
type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

func NewRecord(t RecordType, data []byte) *Record {
	return &Record{
		Type: t,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}
