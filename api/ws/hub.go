// Package ws fans values out to websocket subscribers. The hub never
// blocks the publisher: a subscriber whose buffer is full misses the
// value and is expected to resync from the REST snapshot endpoints.
package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

type Sub[T any] struct {
	C chan T
}

type Hub[T any] struct {
	mu   sync.RWMutex
	subs map[*Sub[T]]struct{}
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[*Sub[T]]struct{})}
}

func (h *Hub[T]) Subscribe(buffer int) *Sub[T] {
	sub := &Sub[T]{C: make(chan T, buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub[T]) Unsubscribe(sub *Sub[T]) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.C)
	}
	h.mu.Unlock()
}

func (h *Hub[T]) Broadcast(value T) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.C <- value:
		default:
		}
	}
}

func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Stream upgrades the request and forwards every hub value to the peer
// as a typed JSON envelope until the peer disconnects.
func Stream[T any](hub *Hub[T], up websocket.Upgrader, msgType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sub := hub.Subscribe(32)
		defer hub.Unsubscribe(sub)

		// Read pump: inbound frames are discarded, but reading is what
		// surfaces a disconnect while the stream is idle.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-gone:
				return
			case value, ok := <-sub.C:
				if !ok {
					return
				}
				if err := conn.WriteJSON(envelope{Type: msgType, Data: value}); err != nil {
					return
				}
			}
		}
	}
}
