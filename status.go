package statuspoll

import (
	"strings"
	"time"
)

// State is the lifecycle state of a single poll run.
//
// A run starts in [StatePolling] and ends in exactly one of the terminal
// states [StateSucceeded], [StateTimedOut], or [StateFailed]. Using a string
// type keeps states readable in logs and JSON.
type State string

const (
	// StatePolling indicates the run is still sampling the accessor.
	StatePolling State = "polling"

	// StateSucceeded indicates an observed status matched one of the targets.
	StateSucceeded State = "succeeded"

	// StateTimedOut indicates the time budget elapsed without a match.
	StateTimedOut State = "timed_out"

	// StateFailed indicates the accessor failed too many times in a row,
	// or reported cancellation.
	StateFailed State = "failed"
)

// String returns the string representation of the state.
// This implements the fmt.Stringer interface.
func (s State) String() string {
	return string(s)
}

// Terminal reports whether no further transition can happen from s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateTimedOut || s == StateFailed
}

// Snapshot is a single observed status value and the time it was read.
type Snapshot struct {
	// Status is the raw status text returned by the accessor.
	Status string

	// ObservedAt is when the accessor returned Status.
	ObservedAt time.Time
}

// traceSeparator joins statuses when a history is rendered for humans.
const traceSeparator = " → "

// History is the ordered trace of distinct statuses observed during one run.
//
// Consecutive identical statuses collapse into the first snapshot that
// reported them, so no two adjacent entries share a Status. A History only
// grows while its run is active and is handed to the caller unchanged when
// the run ends.
type History []Snapshot

// observe appends s unless it repeats the most recent status.
// It reports whether the history grew.
func (h *History) observe(s Snapshot) bool {
	if n := len(*h); n > 0 && (*h)[n-1].Status == s.Status {
		return false
	}
	*h = append(*h, s)
	return true
}

// Statuses returns the observed status values in order.
func (h History) Statuses() []string {
	out := make([]string, len(h))
	for i, s := range h {
		out[i] = s.Status
	}
	return out
}

// Last returns the most recent snapshot, if any.
func (h History) Last() (Snapshot, bool) {
	if len(h) == 0 {
		return Snapshot{}, false
	}
	return h[len(h)-1], true
}

// String renders the trace as "Pending → In Progress → Completed".
// An empty history renders as "none".
func (h History) String() string {
	if len(h) == 0 {
		return "none"
	}
	return strings.Join(h.Statuses(), traceSeparator)
}

// Result is the discriminated outcome of a poll run.
//
// State says how the run ended; History holds everything observed up to that
// point regardless of the outcome. Matched names the target that satisfied a
// successful run and is empty otherwise.
type Result struct {
	// State is the terminal state of the run.
	State State

	// History is the deduplicated trace of observed statuses.
	History History

	// Matched is the name of the target that matched, if the run succeeded.
	Matched string

	// Attempts is the number of accessor calls made, failed ones included.
	Attempts int

	// Elapsed is the time from the first read until the run ended.
	Elapsed time.Duration
}

// Succeeded reports whether the run reached a target status.
func (r Result) Succeeded() bool {
	return r.State == StateSucceeded
}

// FinalStatus returns the last observed status, or "" if nothing was observed.
func (r Result) FinalStatus() string {
	last, ok := r.History.Last()
	if !ok {
		return ""
	}
	return last.Status
}
