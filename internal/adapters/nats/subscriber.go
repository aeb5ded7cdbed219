package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/placepicker/internal/core/domain"
	"github.com/samirrijal/placepicker/internal/pkg/geospatial"
)

// PositionMessage is the payload on SubjectPosition. Either Error is set or
// Lat/Lon carry the observer position.
type PositionMessage struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Error string  `json:"error,omitempty"`
}

// PositionSink receives the single position outcome.
type PositionSink interface {
	Resolve(c domain.Coordinate) error
	Fail(err error) error
}

// SubscribePosition forwards the first well-formed message on SubjectPosition
// into sink, then unsubscribes. Malformed or out-of-range messages are skipped.
func SubscribePosition(ctx context.Context, nc *nats.Conn, sink PositionSink) error {
	sub, err := nc.SubscribeSync(SubjectPosition)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectPosition, err)
	}

	go func() {
		defer func() { _ = sub.Unsubscribe() }()
		for {
			msg, err := sub.NextMsgWithContext(ctx)
			if err != nil {
				return
			}

			if deliverPosition(msg.Data, sink) {
				return
			}
		}
	}()
	return nil
}

// deliverPosition hands one message to sink. It reports false when the
// message was skipped and the subscription should keep waiting.
func deliverPosition(data []byte, sink PositionSink) bool {
	var m PositionMessage
	if err := json.Unmarshal(data, &m); err != nil {
		slog.Warn("ignoring malformed position message", "error", err)
		return false
	}

	var err error
	if m.Error != "" {
		err = sink.Fail(fmt.Errorf("%w: %s", domain.ErrPositionUnavailable, m.Error))
	} else {
		if verr := geospatial.Validate(m.Lat, m.Lon); verr != nil {
			slog.Warn("ignoring invalid position message", "error", verr)
			return false
		}
		err = sink.Resolve(domain.Coordinate{Lat: m.Lat, Lon: m.Lon})
	}
	if err != nil && !errors.Is(err, domain.ErrPositionAlreadyReported) {
		slog.Warn("position message rejected", "error", err)
	}
	return true
}

// PublishPosition sends one position report.
func PublishPosition(nc *nats.Conn, m PositionMessage) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := nc.Publish(SubjectPosition, data); err != nil {
		return err
	}
	return nc.Flush()
}
