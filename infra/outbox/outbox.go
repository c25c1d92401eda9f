// Package outbox is the durable hand-off between the matching engine and
// the trade broadcaster. Every executed trade is written here with a
// delivery state; the broadcaster drains pending entries to Kafka and
// acknowledges them. Storage is a pebble keyspace, synced on every write,
// so delivery is at-least-once across restarts.
package outbox

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Record is one outbox entry: the encoded trade plus delivery bookkeeping.
type Record struct {
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

const headerLen = 1 + 4 + 8

var ErrShortRecord = errors.New("outbox: record too short")

// value encoding: [state:1][retries:4][lastAttempt:8][payload...]
func encodeRecord(r Record) []byte {
	buf := make([]byte, headerLen+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	copy(buf[headerLen:], r.Payload)
	return buf
}

func decodeRecord(b []byte) (Record, error) {
	if len(b) < headerLen {
		return Record{}, ErrShortRecord
	}
	payload := make([]byte, len(b)-headerLen)
	copy(payload, b[headerLen:])
	return Record{
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     payload,
	}, nil
}

type Outbox struct {
	db  *pebble.DB
	now func() time.Time
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false, // durability is the whole point
	})
	if err != nil {
		return nil, err
	}
	return &Outbox{db: db, now: time.Now}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// Put inserts a freshly executed trade. Overwriting an existing id is
// harmless: replay after a crash regenerates identical trades.
func (o *Outbox) Put(tradeID uint64, payload []byte) error {
	rec := Record{State: StateNew, Payload: payload}
	return o.db.Set(keyFor(tradeID), encodeRecord(rec), pebble.Sync)
}

// MarkSent flags an entry as handed to the broker, bumping the retry
// counter and attempt timestamp.
func (o *Outbox) MarkSent(tradeID uint64) error {
	return o.transition(tradeID, StateSent)
}

// MarkAcked flags an entry as confirmed by the broker.
func (o *Outbox) MarkAcked(tradeID uint64) error {
	return o.transition(tradeID, StateAcked)
}

// MarkFailed flags an entry for retry after a publish error.
func (o *Outbox) MarkFailed(tradeID uint64) error {
	return o.transition(tradeID, StateFailed)
}

func (o *Outbox) transition(tradeID uint64, state State) error {
	rec, err := o.Get(tradeID)
	if err != nil {
		return err
	}
	rec.State = state
	if state == StateSent {
		rec.Retries++
	}
	rec.LastAttempt = o.now().UnixNano()
	return o.db.Set(keyFor(tradeID), encodeRecord(rec), pebble.Sync)
}

// Delete removes an acked entry (cleanup).
func (o *Outbox) Delete(tradeID uint64) error {
	return o.db.Delete(keyFor(tradeID), pebble.Sync)
}

func (o *Outbox) Get(tradeID uint64) (Record, error) {
	val, closer, err := o.db.Get(keyFor(tradeID))
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()
	return decodeRecord(val)
}

// ScanPending visits, in trade order, every entry that still needs
// publishing: NEW and FAILED entries always, SENT entries once their last
// attempt is older than retryAfter (a SENT entry younger than that may
// still be in flight).
func (o *Outbox) ScanPending(retryAfter time.Duration, fn func(tradeID uint64, rec Record) error) error {
	cutoff := o.now().Add(-retryAfter).UnixNano()
	return o.scan(func(id uint64, rec Record) error {
		switch rec.State {
		case StateNew, StateFailed:
		case StateSent:
			if rec.LastAttempt > cutoff {
				return nil
			}
		default:
			return nil
		}
		return fn(id, rec)
	})
}

// ScanByState visits every entry in the given state, in trade order.
func (o *Outbox) ScanByState(state State, fn func(tradeID uint64, rec Record) error) error {
	return o.scan(func(id uint64, rec Record) error {
		if rec.State != state {
			return nil
		}
		return fn(id, rec)
	})
}

func (o *Outbox) scan(fn func(uint64, Record) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("trade/"),
		UpperBound: []byte("trade/~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			return err
		}
		id, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		if err := fn(id, rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

func keyFor(tradeID uint64) []byte {
	return []byte(fmt.Sprintf("trade/%020d", tradeID))
}

func parseKey(b []byte) (uint64, error) {
	var id uint64
	_, err := fmt.Sscanf(string(bytes.TrimPrefix(b, []byte("trade/"))), "%d", &id)
	return id, err
}
