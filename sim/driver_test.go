package sim

import (
	"testing"

	"matchbook/domain/engine"
	"matchbook/domain/orderbook"
)

func TestRunIsDeterministicForFixedSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Orders = 500
	cfg.CancelRate = 0.1

	run := func() (Result, *engine.Engine) {
		eng := engine.New(float64(cfg.BasePrice))
		res, err := NewDriver(cfg).Run(eng)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return res, eng
	}

	resA, engA := run()
	resB, engB := run()

	if resA != resB {
		t.Fatalf("results differ: %+v vs %+v", resA, resB)
	}
	if engA.TradeCount() != engB.TradeCount() {
		t.Fatalf("trade counts differ: %d vs %d", engA.TradeCount(), engB.TradeCount())
	}
	if engA.ReferencePrice() != engB.ReferencePrice() {
		t.Fatalf("reference prices differ: %v vs %v", engA.ReferencePrice(), engB.ReferencePrice())
	}
}

func TestRunKeepsPricesInsideBand(t *testing.T) {
	cfg := Config{Orders: 300, BasePrice: 100, Band: 10, MaxQty: 10, Seed: 7}
	eng := engine.New(100)

	res, err := NewDriver(cfg).Run(eng)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Submitted != cfg.Orders {
		t.Fatalf("submitted = %d, want %d", res.Submitted, cfg.Orders)
	}

	for _, side := range []orderbook.Side{orderbook.Buy, orderbook.Sell} {
		for _, lvl := range eng.BookSnapshot(side) {
			if lvl.Price < 90 || lvl.Price > 110 {
				t.Fatalf("%s level price %d outside band", side, lvl.Price)
			}
		}
	}
	for _, tr := range eng.Trades() {
		if tr.Price < 90 || tr.Price > 110 {
			t.Fatalf("trade price %d outside band", tr.Price)
		}
	}
}

func TestCancelsAccounted(t *testing.T) {
	cfg := Config{Orders: 400, BasePrice: 100, Band: 5, MaxQty: 5, CancelRate: 0.3, Seed: 42}
	eng := engine.New(100)

	res, err := NewDriver(cfg).Run(eng)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Cancelled+res.CancelMisses == 0 {
		t.Fatal("expected some cancel attempts")
	}
	if res.Submitted+res.Cancelled+res.CancelMisses != cfg.Orders {
		t.Fatalf("steps do not add up: %+v", res)
	}
}
