package ws

import "testing"

func TestHubBroadcastReachesSubscribers(t *testing.T) {
	h := NewHub[int]()
	a := h.Subscribe(4)
	b := h.Subscribe(4)

	h.Broadcast(7)
	if got := <-a.C; got != 7 {
		t.Fatalf("a got %d, want 7", got)
	}
	if got := <-b.C; got != 7 {
		t.Fatalf("b got %d, want 7", got)
	}
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	h := NewHub[int]()
	sub := h.Subscribe(1)

	h.Broadcast(1)
	h.Broadcast(2) // dropped, buffer full

	if got := <-sub.C; got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
	select {
	case v := <-sub.C:
		t.Fatalf("unexpected value %d", v)
	default:
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub[int]()
	sub := h.Subscribe(1)
	h.Unsubscribe(sub)
	h.Unsubscribe(sub) // idempotent

	if _, ok := <-sub.C; ok {
		t.Fatal("channel still open after unsubscribe")
	}
	if h.Len() != 0 {
		t.Fatalf("len = %d, want 0", h.Len())
	}
}
