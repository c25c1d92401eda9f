// Command simulate runs a randomized order flow against a fresh in-memory
// book and prints the resulting reference price, book, and tape.
package main

import (
	"flag"
	"fmt"
	"os"

	"matchbook/domain/engine"
	"matchbook/domain/orderbook"
	"matchbook/sim"
)

func main() {
	cfg := sim.DefaultConfig()
	flag.IntVar(&cfg.Orders, "orders", cfg.Orders, "number of orders to submit")
	flag.Int64Var(&cfg.BasePrice, "base", cfg.BasePrice, "center of the price band")
	flag.Int64Var(&cfg.Band, "band", cfg.Band, "half-width of the price band")
	flag.Int64Var(&cfg.MaxQty, "max-qty", cfg.MaxQty, "maximum order quantity")
	flag.Float64Var(&cfg.CancelRate, "cancel-rate", cfg.CancelRate, "probability a step cancels instead of placing")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "rng seed")
	showTape := flag.Bool("tape", false, "print every trade")
	flag.Parse()

	eng := engine.New(float64(cfg.BasePrice))
	res, err := sim.NewDriver(cfg).Run(eng)
	if err != nil {
		fmt.Fprintln(os.Stderr, "simulation failed:", err)
		os.Exit(1)
	}

	fmt.Printf("submitted %d orders, %d cancels (%d missed), %d trades\n",
		res.Submitted, res.Cancelled, res.CancelMisses, eng.TradeCount())
	fmt.Printf("final reference price: %.4f (volume %d)\n", eng.ReferencePrice(), eng.Volume())

	printBook(eng, orderbook.Buy)
	printBook(eng, orderbook.Sell)

	if *showTape {
		fmt.Println("\ntrades:")
		for _, t := range eng.Trades() {
			fmt.Printf("  #%d  %d @ %d  (aggressor %d, resting %d)\n",
				t.ID, t.Qty, t.Price, t.AggressorID, t.RestingID)
		}
	}
}

func printBook(eng *engine.Engine, side orderbook.Side) {
	entries := eng.BookSnapshot(side)
	fmt.Printf("\n%s orders (%d):\n", side, len(entries))
	for _, e := range entries {
		fmt.Printf("  order %d: %d @ %d\n", e.OrderID, e.Qty, e.Price)
	}
}
