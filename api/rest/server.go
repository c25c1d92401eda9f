// Package rest exposes the order book over HTTP. Mutations go through
// the order service so they pick up journaling and outboxing; reads hit
// the engine snapshot methods directly.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"matchbook/api/ws"
	"matchbook/domain/engine"
	"matchbook/domain/orderbook"
	"matchbook/service"
)

type Server struct {
	svc    *service.OrderService
	trades *ws.Hub[TradePrint]
	up     websocket.Upgrader
	log    *zap.Logger
}

// TradePrint is the public view of an execution.
type TradePrint struct {
	TradeID      uint64 `json:"trade_id"`
	AggressorID  uint64 `json:"aggressor_id"`
	RestingID    uint64 `json:"resting_id"`
	Price        int64  `json:"price"`
	Qty          int64  `json:"qty"`
	Seq          uint64 `json:"seq"`
	TimeUnixNano int64  `json:"time_unix_nano"`
}

type placeRequest struct {
	Side  string `json:"side"`
	Price int64  `json:"price"`
	Qty   int64  `json:"qty"`
}

type placeResponse struct {
	OrderID uint64 `json:"order_id"`
	Status  string `json:"status"`
}

type cancelResponse struct {
	OrderID uint64 `json:"order_id"`
	Status  string `json:"status"`
}

type bookResponse struct {
	Side   string             `json:"side"`
	Depth  int                `json:"depth"`
	Levels []engine.BookEntry `json:"levels"`
}

type priceResponse struct {
	ReferencePrice float64 `json:"reference_price"`
	Volume         int64   `json:"volume"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewServer(svc *service.OrderService, log *zap.Logger) *Server {
	s := &Server{
		svc:    svc,
		trades: ws.NewHub[TradePrint](),
		up:     websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		log:    log,
	}
	svc.OnTrades(s.publishTrades)
	return s
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestID)
	r.HandleFunc("/orders", s.handlePlace).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id:[0-9]+}", s.handleCancel).Methods(http.MethodDelete)
	r.HandleFunc("/book/{side}", s.handleBook).Methods(http.MethodGet)
	r.HandleFunc("/trades", s.handleTrades).Methods(http.MethodGet)
	r.HandleFunc("/price", s.handlePrice).Methods(http.MethodGet)
	r.HandleFunc("/ws/trades", ws.Stream(s.trades, s.up, "trade")).Methods(http.MethodGet)
	return r
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := uuid.NewString()
		w.Header().Set("X-Request-ID", rid)
		s.log.Debug("request",
			zap.String("request_id", rid),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid payload: %w", err))
		return
	}

	side, err := parseSide(req.Side)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, err := s.svc.Submit(side, req.Price, req.Qty)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, placeResponse{OrderID: id, Status: "accepted"})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid order id: %w", err))
		return
	}
	side, err := parseSide(r.URL.Query().Get("side"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.svc.Cancel(id, side); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{OrderID: id, Status: "cancelled"})
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	side, err := parseSide(mux.Vars(r)["side"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	levels := s.svc.BookSnapshot(side)
	writeJSON(w, http.StatusOK, bookResponse{
		Side:   side.String(),
		Depth:  s.svc.Depth(side),
		Levels: levels,
	})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	since := 0
	if raw := r.URL.Query().Get("since"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid since parameter %q", raw))
			return
		}
		since = n
	}

	prints := make([]TradePrint, 0)
	for _, t := range s.svc.TradesSince(since) {
		prints = append(prints, toPrint(t))
	}
	writeJSON(w, http.StatusOK, prints)
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, priceResponse{
		ReferencePrice: s.svc.ReferencePrice(),
		Volume:         s.svc.Volume(),
	})
}

func (s *Server) publishTrades(trades []engine.Trade) {
	for _, t := range trades {
		s.trades.Broadcast(toPrint(t))
	}
}

func toPrint(t engine.Trade) TradePrint {
	return TradePrint{
		TradeID:      t.ID,
		AggressorID:  t.AggressorID,
		RestingID:    t.RestingID,
		Price:        t.Price,
		Qty:          t.Qty,
		Seq:          t.Seq,
		TimeUnixNano: t.Time.UnixNano(),
	}
}

func parseSide(raw string) (orderbook.Side, error) {
	switch raw {
	case "buy":
		return orderbook.Buy, nil
	case "sell":
		return orderbook.Sell, nil
	default:
		return 0, fmt.Errorf("invalid side %q, want buy or sell", raw)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, orderbook.ErrInvalidOrder), errors.Is(err, orderbook.ErrDuplicateOrder):
		return http.StatusBadRequest
	case errors.Is(err, orderbook.ErrOrderNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
