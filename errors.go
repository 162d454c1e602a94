package statuspoll

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned before any polling when the configuration
	// cannot describe a bounded run: no targets, a non-positive interval,
	// timeout or failure threshold, or a nil accessor.
	ErrInvalidConfig = errors.New("invalid poll config")

	// ErrTimeoutExceeded is returned when no target status was observed within
	// the timeout. Callers may treat it as fatal or informational.
	ErrTimeoutExceeded = errors.New("timeout exceeded")

	// ErrAccessorExhausted is returned when the accessor failed on too many
	// consecutive ticks, which usually means the UI is in an unexpected state
	// rather than just slow.
	ErrAccessorExhausted = errors.New("status accessor exhausted")

	// ErrCancelled is the condition a cancellation-aware accessor reports to
	// stop a run early. The poller ends the run as failed instead of retrying.
	ErrCancelled = errors.New("poll cancelled")
)

// PollError describes a run that ended without reaching a target.
//
// It unwraps to its Kind ([ErrTimeoutExceeded], [ErrAccessorExhausted] or
// [ErrCancelled]) and to the last accessor error, so both can be tested with
// errors.Is. The message always includes the observed trace.
type PollError struct {
	// Kind is the sentinel describing why the run ended.
	Kind error

	// State is the terminal state of the run.
	State State

	// History is the trace observed before the run ended.
	History History

	// Cause is the last accessor error, if any.
	Cause error
}

// Error implements the error interface.
func (e *PollError) Error() string {
	msg := fmt.Sprintf("%v (statuses seen: %s)", e.Kind, e.History)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the kind sentinel and the underlying cause.
func (e *PollError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// invalidConfig wraps a validation message in [ErrInvalidConfig].
func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
