package session

import "fmt"

// ErrSessionNotFound indicates an unknown session id.
type ErrSessionNotFound struct {
	ID string
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session not found: %s", e.ID)
}

// ErrSectionNotFound indicates an interaction targeting a section the
// analysis never produced.
type ErrSectionNotFound struct {
	SessionID string
	Section   string
}

func (e *ErrSectionNotFound) Error() string {
	return fmt.Sprintf("section %q not found in session %s", e.Section, e.SessionID)
}

// ErrInvalidAction indicates an unrecognized interaction action.
type ErrInvalidAction struct {
	Action string
}

func (e *ErrInvalidAction) Error() string {
	return fmt.Sprintf("invalid action: %q", e.Action)
}

// ErrConflict indicates an operation incompatible with the session's current
// status. The session is left unchanged.
type ErrConflict struct {
	SessionID string
	Status    Status
	Op        string
}

func (e *ErrConflict) Error() string {
	return fmt.Sprintf("cannot %s session %s in status %q", e.Op, e.SessionID, e.Status)
}

// ErrValidation indicates a rejected input. No session state changes.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrUpstream wraps a gateway failure during an interaction. The session
// stays in waiting_approval; the caller may retry.
type ErrUpstream struct {
	Op  string
	Err error
}

func (e *ErrUpstream) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ErrUpstream) Unwrap() error { return e.Err }
