package snapshot

import (
	"testing"

	"matchbook/domain/engine"
	"matchbook/domain/orderbook"
)

func TestWriteLoadApply(t *testing.T) {
	eng := engine.New(100)
	_, _ = eng.Submit(orderbook.Sell, 101, 5)
	_, _ = eng.Submit(orderbook.Buy, 101, 2) // one trade prints
	_, _ = eng.Submit(orderbook.Buy, 99, 4)

	dir := t.TempDir()
	w := &Writer{Dir: dir}
	if err := w.Write(eng.Image(), 3); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s == nil {
		t.Fatal("expected a snapshot")
	}
	if s.WALSeq != 3 {
		t.Errorf("wal seq = %d, want 3", s.WALSeq)
	}
	if len(s.Orders) != 2 {
		t.Fatalf("resting orders = %d, want 2", len(s.Orders))
	}

	fresh := engine.New(0)
	if err := Apply(s, fresh); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if fresh.LastSeq() != eng.LastSeq() {
		t.Errorf("order id counter = %d, want %d", fresh.LastSeq(), eng.LastSeq())
	}
	if fresh.LastTradeID() != eng.LastTradeID() {
		t.Errorf("trade id counter = %d, want %d", fresh.LastTradeID(), eng.LastTradeID())
	}
	if fresh.ReferencePrice() != eng.ReferencePrice() {
		t.Errorf("ref price = %v, want %v", fresh.ReferencePrice(), eng.ReferencePrice())
	}

	asks := fresh.BookSnapshot(orderbook.Sell)
	if len(asks) != 1 || asks[0].Price != 101 || asks[0].Qty != 3 {
		t.Errorf("restored ask book: %+v", asks)
	}
	bids := fresh.BookSnapshot(orderbook.Buy)
	if len(bids) != 1 || bids[0].Price != 99 || bids[0].Qty != 4 {
		t.Errorf("restored bid book: %+v", bids)
	}
}

func TestLoadMissingIsNotAnError(t *testing.T) {
	s, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s != nil {
		t.Errorf("expected nil snapshot, got %+v", s)
	}
}
