package ports

import (
	"context"

	"github.com/samirrijal/placepicker/internal/core/domain"
)

// PositionSensor resolves the observer's position exactly once.
// The returned channel yields a single PositionResult; it may never yield
// if the host cannot produce a position.
type PositionSensor interface {
	Request(ctx context.Context) <-chan domain.PositionResult
}

// EventPublisher publishes selection events to a message broker.
type EventPublisher interface {
	PublishSelectionEvent(ctx context.Context, event *domain.SelectionEvent) error
	PublishViewResolved(ctx context.Context, observer domain.Coordinate) error
}
