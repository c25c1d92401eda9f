// Package service coordinates the matching engine with its durability
// collaborators. OrderService is the only write entry point: every
// accepted command is journaled to the WAL and every executed trade is
// handed to the outbox for broadcasting. The engine itself stays pure.
package service

import (
	"sync"

	"go.uber.org/zap"

	"matchbook/domain/engine"
	"matchbook/domain/orderbook"
	"matchbook/infra/codec"
	"matchbook/infra/outbox"
	"matchbook/infra/wal"
	"matchbook/snapshot"
)

type OrderService struct {
	// mu serializes the whole write path: engine mutation, WAL append
	// and outbox puts happen as one unit, so journal order always
	// matches execution order and fills are attributed to the order
	// that produced them.
	mu    sync.Mutex
	eng   *engine.Engine
	wal   *wal.WAL
	box   *outbox.Outbox
	snaps *snapshot.Writer
	log   *zap.Logger

	onTrades func([]engine.Trade)
}

func New(
	eng *engine.Engine,
	w *wal.WAL,
	box *outbox.Outbox,
	snaps *snapshot.Writer,
	log *zap.Logger,
) *OrderService {
	return &OrderService{
		eng:   eng,
		wal:   w,
		box:   box,
		snaps: snaps,
		log:   log,
	}
}

// OnTrades registers a callback invoked with the fills produced by each
// accepted order. Call before serving traffic; not safe to swap later.
func (s *OrderService) OnTrades(fn func([]engine.Trade)) {
	s.onTrades = fn
}

// Submit places a limit order. On acceptance the command is journaled and
// any resulting trades are written to the outbox. Journal or outbox
// failures are logged, not surfaced: the match already happened and the
// engine remains the source of truth.
func (s *OrderService) Submit(side orderbook.Side, price, qty int64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.eng.TradeCount()

	id, err := s.eng.Submit(side, price, qty)
	if err != nil {
		return 0, err
	}

	cmd := codec.Command{Op: codec.OpPlace, Side: side, Price: price, Qty: qty, OrderID: id}
	if err := s.wal.Append(wal.NewRecord(wal.RecordPlace, codec.EncodeCommand(cmd))); err != nil {
		s.log.Error("wal append failed", zap.Uint64("order_id", id), zap.Error(err))
	}

	trades := s.eng.TradesSince(before)
	for _, t := range trades {
		if err := s.box.Put(t.ID, codec.EncodeTrade(t)); err != nil {
			s.log.Error("outbox put failed", zap.Uint64("trade_id", t.ID), zap.Error(err))
		}
	}
	if s.onTrades != nil && len(trades) > 0 {
		s.onTrades(trades)
	}

	s.log.Info("order accepted",
		zap.Uint64("order_id", id),
		zap.String("side", side.String()),
		zap.Int64("price", price),
		zap.Int64("qty", qty),
		zap.Int("fills", len(trades)),
	)
	return id, nil
}

// Cancel removes a resting order. Only successful cancels are journaled.
func (s *OrderService) Cancel(id uint64, side orderbook.Side) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.eng.Cancel(id, side); err != nil {
		return err
	}

	cmd := codec.Command{Op: codec.OpCancel, Side: side, OrderID: id}
	if err := s.wal.Append(wal.NewRecord(wal.RecordCancel, codec.EncodeCommand(cmd))); err != nil {
		s.log.Error("wal append failed", zap.Uint64("order_id", id), zap.Error(err))
	}

	s.log.Info("order cancelled", zap.Uint64("order_id", id), zap.String("side", side.String()))
	return nil
}

// ---- queries ----

func (s *OrderService) ReferencePrice() float64 {
	return s.eng.ReferencePrice()
}

func (s *OrderService) Trades() []engine.Trade {
	return s.eng.Trades()
}

func (s *OrderService) TradesSince(n int) []engine.Trade {
	return s.eng.TradesSince(n)
}

func (s *OrderService) BookSnapshot(side orderbook.Side) []engine.BookEntry {
	return s.eng.BookSnapshot(side)
}

func (s *OrderService) Depth(side orderbook.Side) int {
	return s.eng.Depth(side)
}

func (s *OrderService) Volume() int64 {
	return s.eng.Volume()
}

// SnapshotNow persists the current engine image and drops WAL segments it
// makes redundant. It holds the write lock so the image and the WAL
// position it claims to cover cannot drift apart.
func (s *OrderService) SnapshotNow() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	walSeq := s.wal.LastSeq()
	if err := s.snaps.Write(s.eng.Image(), walSeq); err != nil {
		return err
	}
	if err := s.wal.TruncateBefore(walSeq); err != nil {
		s.log.Warn("wal truncate failed", zap.Uint64("wal_seq", walSeq), zap.Error(err))
	}
	s.log.Info("snapshot written", zap.Uint64("wal_seq", walSeq))
	return nil
}
