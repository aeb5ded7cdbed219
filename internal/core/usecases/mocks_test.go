package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/placepicker/internal/core/domain"
)

// --- Mock KeyValueStore ---

type mockKV struct {
	data  map[string]string
	getFn func(ctx context.Context, key string) (string, bool, error)
	setFn func(ctx context.Context, key, value string) error
	sets  int
}

func newMockKV() *mockKV {
	return &mockKV{data: map[string]string{}}
}

func (m *mockKV) Get(ctx context.Context, key string) (string, bool, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mockKV) Set(ctx context.Context, key, value string) error {
	m.sets++
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.data[key] = value
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu       sync.Mutex
	events   []domain.SelectionEvent
	resolved []domain.Coordinate
}

func (m *mockPublisher) PublishSelectionEvent(ctx context.Context, e *domain.SelectionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return nil
}

func (m *mockPublisher) PublishViewResolved(ctx context.Context, observer domain.Coordinate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved = append(m.resolved, observer)
	return nil
}

// --- Mock PositionSensor ---

type mockSensor struct {
	ch chan domain.PositionResult
}

func newMockSensor() *mockSensor {
	return &mockSensor{ch: make(chan domain.PositionResult, 1)}
}

func (m *mockSensor) Request(ctx context.Context) <-chan domain.PositionResult {
	return m.ch
}

// --- Fixtures ---

func testCatalog() []domain.Place {
	return []domain.Place{
		{ID: "p1", Name: "Forest Waterfall", Coordinate: domain.Coordinate{Lat: 0, Lon: 0.10}},
		{ID: "p2", Name: "Sahara Desert Dunes", Coordinate: domain.Coordinate{Lat: 0, Lon: 0.05}},
		{ID: "p3", Name: "Majestic Mountains", Coordinate: domain.Coordinate{Lat: 0, Lon: 1.00}},
	}
}

func ids(places []domain.Place) []string {
	out := make([]string, len(places))
	for i, p := range places {
		out[i] = p.ID
	}
	return out
}
