// Package codec defines the fixed-width binary encodings shared by the
// command WAL and the trade outbox. Everything is big-endian.
package codec

import (
	"encoding/binary"
	"errors"
	"time"

	"matchbook/domain/engine"
	"matchbook/domain/orderbook"
)

type Op uint8

const (
	OpPlace Op = iota
	OpCancel
)

// Command is one accepted engine mutation, as persisted in the WAL.
// OrderID carries the engine-assigned id: for a place it records what the
// deterministic replay will re-assign, for a cancel it is the target.
type Command struct {
	Op      Op
	Side    orderbook.Side
	Price   int64
	Qty     int64
	OrderID uint64
}

const commandLen = 1 + 1 + 8 + 8 + 8

var (
	ErrShortCommand = errors.New("codec: short command payload")
	ErrShortTrade   = errors.New("codec: short trade payload")
)

// EncodeCommand frames a command as [op:1][side:1][price:8][qty:8][id:8].
func EncodeCommand(c Command) []byte {
	buf := make([]byte, commandLen)
	buf[0] = byte(c.Op)
	buf[1] = byte(c.Side)
	binary.BigEndian.PutUint64(buf[2:10], uint64(c.Price))
	binary.BigEndian.PutUint64(buf[10:18], uint64(c.Qty))
	binary.BigEndian.PutUint64(buf[18:26], c.OrderID)
	return buf
}

func DecodeCommand(b []byte) (Command, error) {
	if len(b) < commandLen {
		return Command{}, ErrShortCommand
	}
	return Command{
		Op:      Op(b[0]),
		Side:    orderbook.Side(b[1]),
		Price:   int64(binary.BigEndian.Uint64(b[2:10])),
		Qty:     int64(binary.BigEndian.Uint64(b[10:18])),
		OrderID: binary.BigEndian.Uint64(b[18:26]),
	}, nil
}

const tradeLen = 8 * 7

// EncodeTrade frames a trade as
// [id:8][aggressor:8][resting:8][price:8][qty:8][seq:8][unixnano:8].
func EncodeTrade(t engine.Trade) []byte {
	buf := make([]byte, tradeLen)
	binary.BigEndian.PutUint64(buf[0:8], t.ID)
	binary.BigEndian.PutUint64(buf[8:16], t.AggressorID)
	binary.BigEndian.PutUint64(buf[16:24], t.RestingID)
	binary.BigEndian.PutUint64(buf[24:32], uint64(t.Price))
	binary.BigEndian.PutUint64(buf[32:40], uint64(t.Qty))
	binary.BigEndian.PutUint64(buf[40:48], t.Seq)
	binary.BigEndian.PutUint64(buf[48:56], uint64(t.Time.UnixNano()))
	return buf
}

func DecodeTrade(b []byte) (engine.Trade, error) {
	if len(b) < tradeLen {
		return engine.Trade{}, ErrShortTrade
	}
	return engine.Trade{
		ID:          binary.BigEndian.Uint64(b[0:8]),
		AggressorID: binary.BigEndian.Uint64(b[8:16]),
		RestingID:   binary.BigEndian.Uint64(b[16:24]),
		Price:       int64(binary.BigEndian.Uint64(b[24:32])),
		Qty:         int64(binary.BigEndian.Uint64(b[32:40])),
		Seq:         binary.BigEndian.Uint64(b[40:48]),
		Time:        time.Unix(0, int64(binary.BigEndian.Uint64(b[48:56]))),
	}, nil
}
