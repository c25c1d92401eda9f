package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"matchbook/api/rest"
	"matchbook/config"
	"matchbook/domain/engine"
	"matchbook/infra/outbox"
	"matchbook/infra/wal"
	"matchbook/jobs/broadcaster"
	"matchbook/logging"
	"matchbook/service"
	"matchbook/snapshot"
)

func main() {
	cfg := config.LoadFromEnv("")

	log, err := logging.New(zapcore.InfoLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	w, err := wal.Open(wal.Config{Dir: cfg.Storage.WALDir, SegmentSize: cfg.Storage.WALSegmentSize})
	if err != nil {
		return err
	}
	defer w.Close()

	box, err := outbox.Open(cfg.Storage.OutboxDir)
	if err != nil {
		return err
	}
	defer box.Close()

	eng := engine.New(cfg.Market.InitialRefPrice)
	snaps := &snapshot.Writer{Dir: cfg.Storage.SnapshotDir}
	svc := service.New(eng, w, box, snaps, log)

	if err := svc.Recover(); err != nil {
		return err
	}
	log.Info("engine recovered",
		zap.String("symbol", cfg.Market.Symbol),
		zap.Uint64("last_seq", eng.LastSeq()),
		zap.Int("trades", eng.TradeCount()),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bc, err := broadcaster.New(box, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.RelayInterval, log)
	if err != nil {
		// The book still works without a broker; trades stay queued in
		// the outbox until the next start with Kafka reachable.
		log.Warn("kafka unavailable, trade broadcasting disabled", zap.Error(err))
	} else {
		bc.Start(ctx)
		defer bc.Close()
	}

	go snapshotLoop(ctx, svc, cfg.Storage.SnapshotEvery, log)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: rest.NewServer(svc, log).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn("http shutdown", zap.Error(err))
	}

	// Final snapshot keeps the next start from replaying the whole WAL.
	if err := svc.SnapshotNow(); err != nil {
		log.Warn("final snapshot failed", zap.Error(err))
	}
	return nil
}

func snapshotLoop(ctx context.Context, svc *service.OrderService, every time.Duration, log *zap.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.SnapshotNow(); err != nil {
				log.Warn("periodic snapshot failed", zap.Error(err))
			}
		}
	}
}
