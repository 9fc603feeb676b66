package mpris

import (
	"errors"
	"fmt"
)

// ErrChannelClosed is returned by Recv once the event stream has terminated.
var ErrChannelClosed = errors.New("mpris: event channel closed")

// InvalidNameError indicates a bus name that is not a well-formed MPRIS
// player name. During bootstrap enumeration it just means "not a player";
// on a confirmed ownership change it is a bus contract violation.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return "invalid player bus name: " + e.Name
}

// SetupError indicates that creating a proxy or subscription failed. The
// task that hit it reports it once on the event stream and stops.
type SetupError struct {
	Op     string
	Target string
	Err    error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("failed to %s for %s: %v", e.Op, e.Target, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// CallError indicates a failed D-Bus call against a player.
type CallError struct {
	Op     string
	Target string
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("failed to %s on %s: %v", e.Op, e.Target, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// CapabilityError indicates that an action is not supported by the player
type CapabilityError struct {
	Required string
}

func (e *CapabilityError) Error() string {
	return "action not allowed (requires " + e.Required + ")"
}

// ValidationError indicates that a parameter is invalid
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// StatusError indicates a playback or loop status string that is none of the
// values the MPRIS spec allows.
type StatusError struct {
	Value string
}

func (e *StatusError) Error() string {
	return "unknown status value: " + e.Value
}

// FieldTypeError indicates a metadata field carried by the player with an
// unexpected D-Bus type.
type FieldTypeError struct {
	Field    string
	Expected string
	Got      string
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("metadata field %s: expected %s, got %s", e.Field, e.Expected, e.Got)
}
