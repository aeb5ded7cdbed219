package domain

// Coordinate represents a geographic position in degrees (WGS 84).
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// PositionResult is the single outcome delivered by a position sensor:
// either a coordinate or the reason none is available.
type PositionResult struct {
	Coordinate Coordinate
	Err        error
}
