// Package sim drives a book with randomized limit orders. The driver is
// deterministic for a fixed seed, which makes it usable both as a demo
// workload and as a fixture in recovery tests.
package sim

import (
	"errors"
	"math/rand"

	"matchbook/domain/orderbook"
)

// Book is the surface the driver needs. Both the bare engine and the
// order service satisfy it.
type Book interface {
	Submit(side orderbook.Side, price, qty int64) (uint64, error)
	Cancel(id uint64, side orderbook.Side) error
}

type Config struct {
	Orders     int     // number of submissions to attempt
	BasePrice  int64   // center of the price band
	Band       int64   // prices drawn uniformly from [Base-Band, Base+Band]
	MaxQty     int64   // quantities drawn uniformly from [1, MaxQty]
	CancelRate float64 // probability a step cancels a live order instead
	Seed       int64
}

func DefaultConfig() Config {
	return Config{
		Orders:     100,
		BasePrice:  100,
		Band:       10,
		MaxQty:     10,
		CancelRate: 0,
		Seed:       1,
	}
}

type Result struct {
	Submitted int
	Cancelled int
	// CancelMisses counts cancels that targeted an order already filled.
	CancelMisses int
}

type liveOrder struct {
	id   uint64
	side orderbook.Side
}

type Driver struct {
	cfg  Config
	rand *rand.Rand
	live []liveOrder
}

func NewDriver(cfg Config) *Driver {
	return &Driver{cfg: cfg, rand: rand.New(rand.NewSource(cfg.Seed))}
}

// Run submits cfg.Orders randomized orders to the book, interleaving
// cancels at the configured rate.
func (d *Driver) Run(book Book) (Result, error) {
	var res Result
	for i := 0; i < d.cfg.Orders; i++ {
		if d.cfg.CancelRate > 0 && len(d.live) > 0 && d.rand.Float64() < d.cfg.CancelRate {
			d.cancelRandom(book, &res)
			continue
		}
		if err := d.submitRandom(book, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (d *Driver) submitRandom(book Book, res *Result) error {
	price := d.cfg.BasePrice - d.cfg.Band + d.rand.Int63n(2*d.cfg.Band+1)
	qty := 1 + d.rand.Int63n(d.cfg.MaxQty)
	side := orderbook.Buy
	if d.rand.Intn(2) == 1 {
		side = orderbook.Sell
	}

	id, err := book.Submit(side, price, qty)
	if err != nil {
		return err
	}
	res.Submitted++
	d.live = append(d.live, liveOrder{id: id, side: side})
	return nil
}

func (d *Driver) cancelRandom(book Book, res *Result) {
	i := d.rand.Intn(len(d.live))
	target := d.live[i]
	d.live[i] = d.live[len(d.live)-1]
	d.live = d.live[:len(d.live)-1]

	err := book.Cancel(target.id, target.side)
	switch {
	case err == nil:
		res.Cancelled++
	case errors.Is(err, orderbook.ErrOrderNotFound):
		res.CancelMisses++
	}
}
