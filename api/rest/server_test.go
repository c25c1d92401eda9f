package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"matchbook/domain/engine"
	"matchbook/infra/outbox"
	"matchbook/infra/wal"
	"matchbook/service"
	"matchbook/snapshot"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	root := t.TempDir()

	w, err := wal.Open(wal.Config{Dir: filepath.Join(root, "wal")})
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}
	box, err := outbox.Open(filepath.Join(root, "outbox"))
	if err != nil {
		t.Fatalf("open outbox: %v", err)
	}
	t.Cleanup(func() {
		_ = w.Close()
		_ = box.Close()
	})

	svc := service.New(engine.New(100), w, box, &snapshot.Writer{Dir: filepath.Join(root, "snapshots")}, zap.NewNop())
	ts := httptest.NewServer(NewServer(svc, zap.NewNop()).Router())
	t.Cleanup(ts.Close)
	return ts
}

func place(t *testing.T, ts *httptest.Server, side string, price, qty int64) (*http.Response, placeResponse) {
	t.Helper()
	body, _ := json.Marshal(placeRequest{Side: side, Price: price, Qty: qty})
	resp, err := http.Post(ts.URL+"/orders", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post order: %v", err)
	}
	defer resp.Body.Close()
	var out placeResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestPlaceOrderAccepted(t *testing.T) {
	ts := newTestServer(t)

	resp, out := place(t, ts, "buy", 100, 5)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if out.OrderID == 0 || out.Status != "accepted" {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestPlaceOrderRejectsInvalid(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := place(t, ts, "buy", 0, 5)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("zero price: status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	resp, _ = place(t, ts, "short", 100, 5)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad side: status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestCancelLifecycle(t *testing.T) {
	ts := newTestServer(t)
	_, out := place(t, ts, "sell", 105, 3)

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/orders/%d?side=sell", ts.URL, out.OrderID), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// Second cancel finds nothing.
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("re-cancel: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("re-cancel status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestBookAndPriceEndpoints(t *testing.T) {
	ts := newTestServer(t)
	place(t, ts, "buy", 99, 4)
	place(t, ts, "buy", 101, 2)
	place(t, ts, "sell", 101, 1) // trades against the 101 bid

	resp, err := http.Get(ts.URL + "/book/buy")
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	var book bookResponse
	_ = json.NewDecoder(resp.Body).Decode(&book)
	resp.Body.Close()
	if book.Depth != 2 {
		t.Fatalf("depth = %d, want 2", book.Depth)
	}
	if len(book.Levels) != 2 || book.Levels[0].Price != 101 || book.Levels[0].Qty != 1 {
		t.Fatalf("unexpected levels %+v", book.Levels)
	}

	resp, err = http.Get(ts.URL + "/price")
	if err != nil {
		t.Fatalf("get price: %v", err)
	}
	var price priceResponse
	_ = json.NewDecoder(resp.Body).Decode(&price)
	resp.Body.Close()
	if price.Volume != 1 {
		t.Fatalf("volume = %d, want 1", price.Volume)
	}
	if price.ReferencePrice <= 100 || price.ReferencePrice >= 101 {
		t.Fatalf("reference price = %v, want between 100 and 101", price.ReferencePrice)
	}
}

func TestTradesEndpointWithSince(t *testing.T) {
	ts := newTestServer(t)
	place(t, ts, "sell", 100, 2)
	place(t, ts, "buy", 100, 1)
	place(t, ts, "buy", 100, 1)

	resp, err := http.Get(ts.URL + "/trades?since=1")
	if err != nil {
		t.Fatalf("get trades: %v", err)
	}
	var prints []TradePrint
	_ = json.NewDecoder(resp.Body).Decode(&prints)
	resp.Body.Close()
	if len(prints) != 1 {
		t.Fatalf("got %d trades, want 1", len(prints))
	}
	if prints[0].Price != 100 || prints[0].Qty != 1 {
		t.Fatalf("unexpected print %+v", prints[0])
	}
}
