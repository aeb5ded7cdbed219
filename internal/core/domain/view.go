package domain

// AvailableView is the ranked catalog as presented to the renderer. Until the
// observer position resolves, Resolved is false and Places is empty.
type AvailableView struct {
	Resolved bool        `json:"resolved"`
	Observer *Coordinate `json:"observer,omitempty"`
	Places   []Place     `json:"places"`
}

// View bundles everything the rendering layer consumes.
type View struct {
	Picked    []Place       `json:"picked"`
	Available AvailableView `json:"available"`
	Removal   RemovalState  `json:"removal"`
}
