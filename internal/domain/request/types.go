package request

import "errors"

var ErrInvalidStatus = errors.New("invalid request status")

// Status is the lifecycle state of a service request. Transitions only ever
// move forward: open → accepted → {completed, cancelled}, plus the admin
// override open → cancelled. Completed and cancelled are terminal.
type Status string

const (
	StatusOpen      Status = "open"
	StatusAccepted  Status = "accepted"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func NewStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOpen, StatusAccepted, StatusCompleted, StatusCancelled:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
// The open → cancelled edge exists only for the admin override.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusOpen:
		return next == StatusAccepted || next == StatusCancelled
	case StatusAccepted:
		return next == StatusCompleted || next == StatusCancelled
	default:
		return false
	}
}

// ChatOpen reports whether messaging is permitted in this state. Chat stays
// closed while open because no store is attached yet.
func (s Status) ChatOpen() bool {
	switch s {
	case StatusAccepted, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}
