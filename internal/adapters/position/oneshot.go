package position

import (
	"context"
	"sync"

	"github.com/samirrijal/placepicker/internal/core/domain"
)

// OneShot implements ports.PositionSensor as a single-fire future. Whichever
// source reports first (a client, the broker, static config) settles it;
// every later report is rejected.
type OneShot struct {
	once    sync.Once
	results chan domain.PositionResult
	done    chan struct{}
}

// NewOneShot creates an unresolved sensor.
func NewOneShot() *OneShot {
	return &OneShot{
		results: make(chan domain.PositionResult, 1),
		done:    make(chan struct{}),
	}
}

// Static returns a sensor already resolved to c.
func Static(c domain.Coordinate) *OneShot {
	s := NewOneShot()
	_ = s.Resolve(c)
	return s
}

// Request returns the channel carrying the single result.
func (s *OneShot) Request(ctx context.Context) <-chan domain.PositionResult {
	return s.results
}

// Resolve reports the observer coordinate.
func (s *OneShot) Resolve(c domain.Coordinate) error {
	return s.settle(domain.PositionResult{Coordinate: c})
}

// Fail reports that no position will be available.
func (s *OneShot) Fail(err error) error {
	if err == nil {
		err = domain.ErrPositionUnavailable
	}
	return s.settle(domain.PositionResult{Err: err})
}

// Done is closed once the sensor has settled.
func (s *OneShot) Done() <-chan struct{} {
	return s.done
}

// Settled reports whether a result has already been delivered.
func (s *OneShot) Settled() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *OneShot) settle(res domain.PositionResult) error {
	fired := false
	s.once.Do(func() {
		s.results <- res
		close(s.done)
		fired = true
	})
	if !fired {
		return domain.ErrPositionAlreadyReported
	}
	return nil
}
