// Command tapecat tails the trade topic and prints each execution,
// one line per trade.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"matchbook/jobs/broadcaster"
)

func main() {
	brokers := flag.String("brokers", "localhost:9092", "comma-separated kafka brokers")
	topic := flag.String("topic", "matchbook.trades", "trade topic")
	group := flag.String("group", "", "consumer group (empty reads from the start)")
	raw := flag.Bool("raw", false, "print raw JSON payloads")
	flag.Parse()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  strings.Split(*brokers, ","),
		Topic:    *topic,
		GroupID:  *group,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
	defer reader.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintln(os.Stderr, "read failed:", err)
			os.Exit(1)
		}

		if *raw {
			fmt.Println(string(msg.Value))
			continue
		}

		var ev broadcaster.Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			fmt.Fprintf(os.Stderr, "skipping undecodable message at offset %d: %v\n", msg.Offset, err)
			continue
		}
		ts := time.Unix(0, ev.Time).UTC().Format(time.RFC3339Nano)
		fmt.Printf("%s  trade #%d  %d @ %d  (aggressor %d, resting %d, seq %d)\n",
			ts, ev.TradeID, ev.Qty, ev.Price, ev.AggressorID, ev.RestingID, ev.Seq)
	}
}
