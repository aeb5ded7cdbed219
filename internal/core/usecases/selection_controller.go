package usecases

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/placepicker/internal/core/domain"
	"github.com/samirrijal/placepicker/internal/core/ports"
	"github.com/samirrijal/placepicker/internal/pkg/geospatial"
	"github.com/samirrijal/placepicker/internal/pkg/logging"
	"github.com/samirrijal/placepicker/internal/pkg/metrics"
)

const tracerName = "github.com/samirrijal/placepicker/internal/core/usecases"

// SelectionController reconciles the catalog, the durable selection and the
// two views the renderer shows: picked places and places ranked by distance.
// Every intent runs under one lock, so each is an atomic step.
type SelectionController struct {
	mu sync.Mutex

	catalog []domain.Place
	index   map[string]int
	store   *SelectionStore
	events  ports.EventPublisher

	picked   []domain.Place
	flow     RemovalFlow
	observer *domain.Coordinate
	ranked   []domain.Place

	startOnce sync.Once
	settled   chan struct{}
}

// NewSelectionController loads the stored selection and resolves it against
// catalog. Stored ids without a catalog entry are dropped. events may be nil.
func NewSelectionController(ctx context.Context, catalog []domain.Place, store *SelectionStore, events ports.EventPublisher) *SelectionController {
	c := &SelectionController{
		catalog: catalog,
		index:   make(map[string]int, len(catalog)),
		store:   store,
		events:  events,
		picked:  []domain.Place{},
		settled: make(chan struct{}),
	}
	for i, p := range catalog {
		if _, dup := c.index[p.ID]; !dup {
			c.index[p.ID] = i
		}
	}

	for _, id := range store.Load(ctx) {
		place, ok := c.lookup(id)
		if !ok {
			logging.FromContext(ctx).InfoContext(ctx, "dropping stale selection id", "place_id", id)
			continue
		}
		c.picked = append(c.picked, place)
	}
	if err := store.Retain(ctx, c.isPicked); err != nil {
		metrics.StorageWriteErrors.Inc()
		logging.FromContext(ctx).WarnContext(ctx, "stale ids not purged from storage", "error", err)
	}
	metrics.PickedPlaces.Set(float64(len(c.picked)))
	return c
}

// Place returns a catalog entry by id.
func (c *SelectionController) Place(id string) (domain.Place, error) {
	p, ok := c.lookup(id)
	if !ok {
		return domain.Place{}, domain.ErrUnknownPlace
	}
	return p, nil
}

// Catalog returns a copy of the full catalog in its original order.
func (c *SelectionController) Catalog() []domain.Place {
	return slices.Clone(c.catalog)
}

// Pick adds id to the front of the picked places. Picking an already picked
// place is a no-op; picking an unknown id changes nothing and returns
// ErrUnknownPlace. A failed storage write is logged, not returned.
func (c *SelectionController) Pick(ctx context.Context, id string) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "SelectionController.Pick",
		trace.WithAttributes(attribute.String("place.id", id)))
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isPicked(id) {
		return nil
	}
	place, ok := c.lookup(id)
	if !ok {
		return domain.ErrUnknownPlace
	}

	c.picked = append([]domain.Place{place}, c.picked...)
	if err := c.store.Add(ctx, id); err != nil {
		span.RecordError(err)
		metrics.StorageWriteErrors.Inc()
		logging.FromContext(ctx).WarnContext(ctx, "selection not persisted", "place_id", id, "error", err)
	}

	metrics.SelectionChanges.WithLabelValues(domain.EventPicked).Inc()
	metrics.PickedPlaces.Set(float64(len(c.picked)))
	c.publish(ctx, domain.EventPicked, id)
	return nil
}

// RequestRemoval arms the confirmation flow for id. Nothing is removed yet.
func (c *SelectionController) RequestRemoval(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flow.Arm(id)
}

// ConfirmRemoval removes the pending target from the picked places and the
// store, then closes the flow. It is a no-op when nothing is pending or the
// target is no longer picked.
func (c *SelectionController) ConfirmRemoval(ctx context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "SelectionController.ConfirmRemoval")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.flow.Confirm()
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("place.id", id))
	if !c.isPicked(id) {
		return
	}

	c.picked = slices.DeleteFunc(c.picked, func(p domain.Place) bool { return p.ID == id })
	if err := c.store.Remove(ctx, id); err != nil {
		span.RecordError(err)
		metrics.StorageWriteErrors.Inc()
		logging.FromContext(ctx).WarnContext(ctx, "removal not persisted", "place_id", id, "error", err)
	}

	metrics.SelectionChanges.WithLabelValues(domain.EventRemoved).Inc()
	metrics.PickedPlaces.Set(float64(len(c.picked)))
	c.publish(ctx, domain.EventRemoved, id)
}

// CancelRemoval closes the flow without touching the selection.
func (c *SelectionController) CancelRemoval() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flow.Cancel()
}

// RemovalState reports whether a removal is pending confirmation.
func (c *SelectionController) RemovalState() domain.RemovalState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flow.State()
}

// Picked returns the picked places, most recent first.
func (c *SelectionController) Picked() []domain.Place {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.picked)
}

// Available returns the catalog ranked by distance from the observer, or an
// unresolved view while the position is not known.
func (c *SelectionController) Available() domain.AvailableView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.available()
}

// View returns picked places, available places and removal state together.
func (c *SelectionController) View() domain.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.View{
		Picked:    slices.Clone(c.picked),
		Available: c.available(),
		Removal:   c.flow.State(),
	}
}

// Start requests the observer position once. When the sensor yields a valid
// coordinate the catalog is ranked and cached; on failure the available view
// stays unresolved. Later calls are ignored.
func (c *SelectionController) Start(ctx context.Context, sensor ports.PositionSensor) {
	c.startOnce.Do(func() {
		results := sensor.Request(ctx)
		go func() {
			defer close(c.settled)
			select {
			case res, ok := <-results:
				if !ok {
					res.Err = domain.ErrPositionUnavailable
				}
				c.settle(ctx, res)
			case <-ctx.Done():
			}
		}()
	})
}

// Settled is closed once the position request has produced its single
// outcome, successful or not.
func (c *SelectionController) Settled() <-chan struct{} {
	return c.settled
}

func (c *SelectionController) settle(ctx context.Context, res domain.PositionResult) {
	if res.Err == nil {
		if err := geospatial.Validate(res.Coordinate.Lat, res.Coordinate.Lon); err != nil {
			res.Err = errors.Join(domain.ErrInvalidCoordinate, err)
		}
	}
	if res.Err != nil {
		metrics.PositionOutcomes.WithLabelValues("failed").Inc()
		logging.FromContext(ctx).WarnContext(ctx, "observer position unavailable, places stay unsorted", "error", res.Err)
		return
	}

	ranked := OrderByDistance(c.catalog, res.Coordinate)

	c.mu.Lock()
	observer := res.Coordinate
	c.observer = &observer
	c.ranked = ranked
	c.mu.Unlock()

	metrics.PositionOutcomes.WithLabelValues("resolved").Inc()
	logging.FromContext(ctx).InfoContext(ctx, "places ranked by distance", "lat", observer.Lat, "lon", observer.Lon, "places", len(ranked))

	if c.events != nil {
		if err := c.events.PublishViewResolved(ctx, observer); err != nil {
			logging.FromContext(ctx).WarnContext(ctx, "publish view resolved failed", "error", err)
		}
	}
}

func (c *SelectionController) available() domain.AvailableView {
	if c.observer == nil {
		return domain.AvailableView{Places: []domain.Place{}}
	}
	observer := *c.observer
	return domain.AvailableView{
		Resolved: true,
		Observer: &observer,
		Places:   clonePlaces(c.ranked),
	}
}

func (c *SelectionController) lookup(id string) (domain.Place, bool) {
	i, ok := c.index[id]
	if !ok {
		return domain.Place{}, false
	}
	return c.catalog[i], true
}

func (c *SelectionController) isPicked(id string) bool {
	return slices.ContainsFunc(c.picked, func(p domain.Place) bool { return p.ID == id })
}

func (c *SelectionController) publish(ctx context.Context, eventType, id string) {
	if c.events == nil {
		return
	}
	event := &domain.SelectionEvent{Type: eventType, PlaceID: id, At: time.Now().UTC()}
	if err := c.events.PublishSelectionEvent(ctx, event); err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "publish selection event failed", "type", eventType, "place_id", id, "error", err)
	}
}
