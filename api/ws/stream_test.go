package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialStream(t *testing.T, hub *Hub[int]) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(Stream(hub, websocket.Upgrader{}, "tick"))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStreamDeliversBroadcasts(t *testing.T) {
	hub := NewHub[int]()
	conn, cleanup := dialStream(t, hub)
	defer cleanup()

	waitFor(t, "subscription", func() bool { return hub.Len() == 1 })
	hub.Broadcast(42)

	var msg struct {
		Type string `json:"type"`
		Data int    `json:"data"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "tick" || msg.Data != 42 {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestStreamUnsubscribesIdleDisconnectedPeer(t *testing.T) {
	hub := NewHub[int]()
	conn, cleanup := dialStream(t, hub)
	defer cleanup()

	waitFor(t, "subscription", func() bool { return hub.Len() == 1 })

	// No broadcast in flight: closing the peer must still tear the
	// handler down via its read side.
	conn.Close()
	waitFor(t, "unsubscribe", func() bool { return hub.Len() == 0 })
}
