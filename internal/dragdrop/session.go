package dragdrop

import "github.com/hylla/joinboard/internal/domain"

// State is the drag session lifecycle.
type State int

const (
	StateIdle State = iota
	// StateArmed is a touch that has not yet crossed the long-press delay or move threshold.
	StateArmed
	StateDragging
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateDragging:
		return "dragging"
	default:
		return "idle"
	}
}

// Element is a rendered card that can show or hide its lifted styling.
type Element interface {
	SetLifted(lifted bool)
}

// Session is the in-flight drag. At most one exists per engine.
type Session struct {
	state       State
	taskID      string
	origin      Element
	originZone  domain.ZoneID
	start       Point
	activeTouch bool
	promote     Timer
}

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// TaskID returns the dragged task id, empty while idle.
func (s *Session) TaskID() string { return s.taskID }

// ActiveTouch reports whether a touch gesture owns the session.
func (s *Session) ActiveTouch() bool { return s.activeTouch }

// OriginZone returns the zone the drag started in.
func (s *Session) OriginZone() domain.ZoneID { return s.originZone }

// Reset stops the promotion timer and clears every field.
func (s *Session) Reset() {
	if s.promote != nil {
		s.promote.Stop()
	}
	*s = Session{}
}

func (s *Session) cancelPromotion() {
	if s.promote != nil {
		s.promote.Stop()
		s.promote = nil
	}
}
