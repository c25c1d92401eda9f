// Package broadcaster drains the trade outbox to Kafka. It marks entries
// SENT before publishing and ACKED after the broker confirms, so a crash
// at any point results in redelivery, never loss.
package broadcaster

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"matchbook/infra/codec"
	"matchbook/infra/outbox"
)

// Event is the wire format published on the trade topic.
type Event struct {
	V           int    `json:"v"`
	Type        string `json:"type"`
	TradeID     uint64 `json:"trade_id"`
	AggressorID uint64 `json:"aggressor_id"`
	RestingID   uint64 `json:"resting_id"`
	Price       int64  `json:"price"`
	Qty         int64  `json:"qty"`
	Seq         uint64 `json:"seq"`
	Time        int64  `json:"time_unix_nano"`
}

type Broadcaster struct {
	box      *outbox.Outbox
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	retry    time.Duration
	log      *zap.Logger
}

func New(
	box *outbox.Outbox,
	brokers []string,
	topic string,
	interval time.Duration,
	log *zap.Logger,
) (*Broadcaster, error) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Broadcaster{
		box:      box,
		producer: producer,
		topic:    topic,
		interval: interval,
		retry:    5 * time.Second,
		log:      log,
	}, nil
}

// Start launches the relay loop. It returns immediately; the loop stops
// when ctx is cancelled.
func (b *Broadcaster) Start(ctx context.Context) {
	b.log.Info("broadcaster started", zap.String("topic", b.topic))

	go func() {
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.relayOnce()
			}
		}
	}()
}

func (b *Broadcaster) relayOnce() {
	err := b.box.ScanPending(b.retry, func(tradeID uint64, rec outbox.Record) error {
		if err := b.box.MarkSent(tradeID); err != nil {
			return err
		}

		payload, err := eventPayload(rec.Payload)
		if err != nil {
			b.log.Error("undecodable outbox payload", zap.Uint64("trade_id", tradeID), zap.Error(err))
			return nil // skip, do not wedge the scan
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Key:   sarama.StringEncoder(keyOf(tradeID)),
			Value: sarama.ByteEncoder(payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			_ = b.box.MarkFailed(tradeID)
			b.log.Warn("publish failed, will retry", zap.Uint64("trade_id", tradeID), zap.Error(err))
			return nil
		}

		if err := b.box.MarkAcked(tradeID); err != nil {
			return err
		}
		return b.box.Delete(tradeID)
	})
	if err != nil {
		b.log.Error("outbox scan failed", zap.Error(err))
	}
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}

func eventPayload(raw []byte) ([]byte, error) {
	t, err := codec.DecodeTrade(raw)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{
		V:           1,
		Type:        "trade",
		TradeID:     t.ID,
		AggressorID: t.AggressorID,
		RestingID:   t.RestingID,
		Price:       t.Price,
		Qty:         t.Qty,
		Seq:         t.Seq,
		Time:        t.Time.UnixNano(),
	})
}

func keyOf(tradeID uint64) string {
	return "trade-" + strconv.FormatUint(tradeID, 10)
}
