// Package config loads service configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Market struct {
	Symbol string
	// InitialRefPrice seeds the reference price before any trade.
	InitialRefPrice float64
}

type Storage struct {
	WALDir         string
	WALSegmentSize int64
	OutboxDir      string
	SnapshotDir    string
	// SnapshotEvery triggers a periodic snapshot plus WAL truncation.
	SnapshotEvery time.Duration
}

type Kafka struct {
	Brokers []string
	Topic   string
	// RelayInterval paces the outbox relay loop.
	RelayInterval time.Duration
}

type Config struct {
	ListenAddr string
	Market     Market
	Storage    Storage
	Kafka      Kafka
}

func Default() Config {
	return Config{
		ListenAddr: ":8080",
		Market: Market{
			Symbol:          "MBK",
			InitialRefPrice: 100,
		},
		Storage: Storage{
			WALDir:         "data/wal",
			WALSegmentSize: 2 << 20,
			OutboxDir:      "data/outbox",
			SnapshotDir:    "data/snapshots",
			SnapshotEvery:  time.Minute,
		},
		Kafka: Kafka{
			Brokers:       []string{"localhost:9092"},
			Topic:         "matchbook.trades",
			RelayInterval: 250 * time.Millisecond,
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and the
// environment. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.Market.Symbol = getEnv("SYMBOL", cfg.Market.Symbol)
	if raw := os.Getenv("INITIAL_REF_PRICE"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			cfg.Market.InitialRefPrice = v
		}
	}

	cfg.Storage.WALDir = getEnv("WAL_DIR", cfg.Storage.WALDir)
	cfg.Storage.OutboxDir = getEnv("OUTBOX_DIR", cfg.Storage.OutboxDir)
	cfg.Storage.SnapshotDir = getEnv("SNAPSHOT_DIR", cfg.Storage.SnapshotDir)
	if raw := os.Getenv("WAL_SEGMENT_BYTES"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v > 0 {
			cfg.Storage.WALSegmentSize = v
		}
	}
	if raw := os.Getenv("SNAPSHOT_EVERY_SEC"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			cfg.Storage.SnapshotEvery = time.Duration(v) * time.Second
		}
	}

	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		cfg.Kafka.Brokers = strings.Split(raw, ",")
	}
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)
	if raw := os.Getenv("RELAY_INTERVAL_MS"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			cfg.Kafka.RelayInterval = time.Duration(v) * time.Millisecond
		}
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
