package usecases

import "github.com/samirrijal/placepicker/internal/core/domain"

// RemovalFlow gates destructive removal behind an explicit confirm or cancel.
// It is Armed from Arm until the next Confirm or Cancel, and Idle otherwise.
type RemovalFlow struct {
	target string
	armed  bool
}

// Arm holds id pending confirmation. Arming while armed replaces the target.
func (f *RemovalFlow) Arm(id string) {
	f.target = id
	f.armed = true
}

// Confirm returns the pending target and returns the flow to Idle.
// ok is false when nothing was armed.
func (f *RemovalFlow) Confirm() (id string, ok bool) {
	if !f.armed {
		return "", false
	}
	id = f.target
	f.reset()
	return id, true
}

// Cancel discards any pending target.
func (f *RemovalFlow) Cancel() {
	f.reset()
}

// State reports Idle or Armed(target).
func (f *RemovalFlow) State() domain.RemovalState {
	return domain.RemovalState{Armed: f.armed, TargetID: f.target}
}

func (f *RemovalFlow) reset() {
	f.target = ""
	f.armed = false
}
