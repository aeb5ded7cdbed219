package domain

import (
	"errors"
	"time"
)

var (
	// ErrUnknownPlace is returned when an id has no matching catalog entry.
	ErrUnknownPlace = errors.New("unknown place")
	// ErrInvalidCoordinate is returned for coordinates outside valid degree ranges.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	// ErrPositionUnavailable reports a sensor failure (denied, absent, timed out).
	ErrPositionUnavailable = errors.New("position unavailable")
	// ErrPositionAlreadyReported is returned once the one-shot sensor has fired.
	ErrPositionAlreadyReported = errors.New("position already reported")
)

// Place is an immutable catalog record.
type Place struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	ImageSrc    string     `json:"image_src" yaml:"image_src"`
	Coordinate  Coordinate `json:"coordinate" yaml:"coordinate"`
	Description string     `json:"description,omitempty" yaml:"description"`
	Distance    *float64   `json:"distance,omitempty" yaml:"-"` // computed field, meters
}

// RemovalState is the state of the removal confirmation flow.
type RemovalState struct {
	Armed    bool   `json:"armed"`
	TargetID string `json:"target_id,omitempty"`
}

// SelectionEvent is published whenever the picked selection changes.
type SelectionEvent struct {
	Type    string    `json:"type"` // "picked" | "removed"
	PlaceID string    `json:"place_id"`
	At      time.Time `json:"at"`
}

// Selection event types.
const (
	EventPicked  = "picked"
	EventRemoved = "removed"
)
