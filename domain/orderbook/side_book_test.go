package orderbook

import (
	"errors"
	"testing"
)

func mkOrder(id uint64, side Side, price, qty int64) *Order {
	return &Order{ID: id, Side: side, Price: price, Qty: qty, Seq: id}
}

func TestSideBookRejectsInvalidOrders(t *testing.T) {
	book := NewSideBook(Buy)

	if err := book.Insert(mkOrder(1, Buy, 100, 0)); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("zero quantity: got %v, want ErrInvalidOrder", err)
	}
	if err := book.Insert(mkOrder(2, Buy, 0, 5)); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("zero price: got %v, want ErrInvalidOrder", err)
	}
	if err := book.Insert(mkOrder(3, Buy, -10, 5)); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("negative price: got %v, want ErrInvalidOrder", err)
	}
	if !book.Empty() {
		t.Error("rejected orders must not rest")
	}
}

func TestSideBookRejectsDuplicateID(t *testing.T) {
	book := NewSideBook(Sell)
	if err := book.Insert(mkOrder(7, Sell, 100, 1)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := book.Insert(mkOrder(7, Sell, 101, 1)); !errors.Is(err, ErrDuplicateOrder) {
		t.Errorf("got %v, want ErrDuplicateOrder", err)
	}
	if book.Len() != 1 {
		t.Errorf("expected 1 resting order, got %d", book.Len())
	}
}

func TestBidPriority(t *testing.T) {
	book := NewSideBook(Buy)
	_ = book.Insert(mkOrder(1, Buy, 100, 1))
	_ = book.Insert(mkOrder(2, Buy, 102, 1))
	_ = book.Insert(mkOrder(3, Buy, 101, 1))
	_ = book.Insert(mkOrder(4, Buy, 102, 1)) // same price, later seq

	want := []uint64{2, 4, 3, 1} // price desc, then seq asc
	var got []uint64
	book.Walk(func(o *Order) bool {
		got = append(got, o.ID)
		return true
	})
	if len(got) != len(want) {
		t.Fatalf("walked %d orders, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("priority order %v, want %v", got, want)
		}
	}
	if book.Best().ID != 2 {
		t.Errorf("best bid id = %d, want 2", book.Best().ID)
	}
}

func TestAskPriority(t *testing.T) {
	book := NewSideBook(Sell)
	_ = book.Insert(mkOrder(1, Sell, 105, 1))
	_ = book.Insert(mkOrder(2, Sell, 103, 1))
	_ = book.Insert(mkOrder(3, Sell, 103, 1))
	_ = book.Insert(mkOrder(4, Sell, 104, 1))

	want := []uint64{2, 3, 4, 1} // price asc, then seq asc
	var got []uint64
	book.Walk(func(o *Order) bool {
		got = append(got, o.ID)
		return true
	})
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("priority order %v, want %v", got, want)
		}
	}
	if book.Best().ID != 2 {
		t.Errorf("best ask id = %d, want 2", book.Best().ID)
	}
}

func TestRemove(t *testing.T) {
	book := NewSideBook(Buy)
	_ = book.Insert(mkOrder(1, Buy, 100, 5))
	_ = book.Insert(mkOrder(2, Buy, 100, 5))

	o, err := book.Remove(1)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if o.ID != 1 {
		t.Errorf("removed id = %d, want 1", o.ID)
	}
	if book.Best().ID != 2 {
		t.Errorf("best after remove = %d, want 2", book.Best().ID)
	}

	if _, err := book.Remove(1); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("second remove: got %v, want ErrOrderNotFound", err)
	}

	if _, err := book.Remove(2); err != nil {
		t.Fatalf("remove last: %v", err)
	}
	if !book.Empty() || book.Depth() != 0 {
		t.Error("book should be empty with no levels left")
	}
	if book.Best() != nil {
		t.Error("Best on empty book should be nil")
	}
}

func TestReduceClampsAtZero(t *testing.T) {
	book := NewSideBook(Sell)
	o := mkOrder(1, Sell, 100, 3)
	_ = book.Insert(o)

	book.Reduce(o, 2)
	if o.Qty != 1 {
		t.Errorf("qty = %d, want 1", o.Qty)
	}
	book.Reduce(o, 5) // over-reduce is clamped
	if o.Qty != 0 {
		t.Errorf("qty = %d, want 0", o.Qty)
	}
}

func TestEmptyLevelIsDropped(t *testing.T) {
	book := NewSideBook(Sell)
	_ = book.Insert(mkOrder(1, Sell, 100, 1))
	_ = book.Insert(mkOrder(2, Sell, 200, 1))
	if book.Depth() != 2 {
		t.Fatalf("depth = %d, want 2", book.Depth())
	}
	if _, err := book.Remove(1); err != nil {
		t.Fatal(err)
	}
	if book.Depth() != 1 {
		t.Errorf("depth = %d, want 1 after emptying a level", book.Depth())
	}
}
