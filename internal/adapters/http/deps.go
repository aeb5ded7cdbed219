package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/placepicker/internal/core/domain"
	"github.com/samirrijal/placepicker/internal/core/usecases"
)

// PositionReporter accepts the single observer position report.
type PositionReporter interface {
	Resolve(c domain.Coordinate) error
	Fail(err error) error
}

// Pinger is a dependency that can report its own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Places   *usecases.SelectionController
	Position PositionReporter
	Storage  Pinger
	NATS     *nats.Conn
}
