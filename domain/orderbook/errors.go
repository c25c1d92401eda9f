package orderbook

import "errors"

var (
	// ErrInvalidOrder rejects a submission with quantity < 1 or a
	// non-positive price. Nothing is mutated and no id is consumed.
	ErrInvalidOrder = errors.New("orderbook: invalid order")

	// ErrOrderNotFound is returned when removing an id that is not
	// resting on the addressed side.
	ErrOrderNotFound = errors.New("orderbook: order not found")

	// ErrDuplicateOrder guards the book invariant that no two resting
	// orders share an id.
	ErrDuplicateOrder = errors.New("orderbook: duplicate order id")
)
