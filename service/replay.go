package service

import (
	"fmt"

	"go.uber.org/zap"

	"matchbook/infra/codec"
	"matchbook/infra/wal"
	"matchbook/snapshot"
)

// Recover rebuilds engine state on boot: apply the newest snapshot, then
// feed every WAL record past it through the deterministic engine. Replayed
// matching regenerates the same trades with the same ids, which are
// re-put into the outbox; entries already acked before the crash may be
// published again, keeping the tape at-least-once.
func (s *OrderService) Recover() error {
	var skip uint64

	snap, err := snapshot.Load(s.snaps.Dir)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if snap != nil {
		if err := snapshot.Apply(snap, s.eng); err != nil {
			return fmt.Errorf("apply snapshot: %w", err)
		}
		skip = snap.WALSeq
		s.log.Info("snapshot applied",
			zap.Uint64("wal_seq", snap.WALSeq),
			zap.Int("resting_orders", len(snap.Orders)),
			zap.Time("created", snap.Created),
		)
	}

	replayed := 0
	lastSeq, err := wal.Replay(s.wal.Dir(), func(rec *wal.Record) error {
		if rec.Seq <= skip {
			return nil
		}
		cmd, err := codec.DecodeCommand(rec.Data)
		if err != nil {
			return fmt.Errorf("wal seq %d: %w", rec.Seq, err)
		}

		switch cmd.Op {
		case codec.OpPlace:
			before := s.eng.TradeCount()
			id, err := s.eng.Submit(cmd.Side, cmd.Price, cmd.Qty)
			if err != nil {
				// The WAL only holds accepted commands; a rejection
				// here means the journal does not match the engine.
				return fmt.Errorf("wal seq %d: replayed place rejected: %w", rec.Seq, err)
			}
			if id != cmd.OrderID {
				return fmt.Errorf("wal seq %d: replay diverged, id %d != journaled %d",
					rec.Seq, id, cmd.OrderID)
			}
			for _, t := range s.eng.TradesSince(before) {
				if err := s.box.Put(t.ID, codec.EncodeTrade(t)); err != nil {
					s.log.Error("outbox put during replay failed",
						zap.Uint64("trade_id", t.ID), zap.Error(err))
				}
			}
		case codec.OpCancel:
			if err := s.eng.Cancel(cmd.OrderID, cmd.Side); err != nil {
				return fmt.Errorf("wal seq %d: replayed cancel failed: %w", rec.Seq, err)
			}
		default:
			return fmt.Errorf("wal seq %d: unknown op %d", rec.Seq, cmd.Op)
		}
		replayed++
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("recovery complete",
		zap.Int("replayed", replayed),
		zap.Uint64("last_wal_seq", lastSeq),
		zap.Uint64("last_order_id", s.eng.LastSeq()),
	)
	return nil
}
