package statuspoll

import (
	"fmt"
	"regexp"
	"strings"
)

// Target describes an acceptable terminal status.
//
// A Target pairs a display name with a case-insensitive predicate over the raw
// status text. Build one with [Contains], [Exact], [Regex] or [Custom]; the
// zero value matches nothing and is rejected by [New].
type Target struct {
	name  string
	match func(status string) bool
}

// Name returns the human-readable description of the target.
func (t Target) Name() string {
	return t.name
}

// Match reports whether status satisfies the target.
func (t Target) Match(status string) bool {
	if t.match == nil {
		return false
	}
	return t.match(status)
}

// String implements fmt.Stringer.
func (t Target) String() string {
	return t.name
}

// Contains returns a [Target] that matches any status containing text,
// ignoring case and surrounding whitespace. Blank text yields a Target with
// no matcher, which matches nothing and is rejected by [WithTarget].
//
// This mirrors how workflow labels are usually asserted in UI tests: a
// target of "delivered" matches "Delivered" and "DELIVERED (2 files)".
//
// Example:
//
//	target := statuspoll.Contains("completed")
func Contains(text string) Target {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return Target{name: text}
	}
	return Target{
		name: text,
		match: func(status string) bool {
			return strings.Contains(strings.ToLower(status), lower)
		},
	}
}

// Exact returns a [Target] that matches a status equal to text, ignoring case
// and surrounding whitespace.
func Exact(text string) Target {
	want := strings.TrimSpace(text)
	return Target{
		name: text,
		match: func(status string) bool {
			return strings.EqualFold(strings.TrimSpace(status), want)
		},
	}
}

// Regex returns a [Target] that matches statuses against pattern.
//
// The pattern is always compiled case-insensitively. Returns an error if the
// pattern is invalid.
//
// Example:
//
//	// terminal on either outcome of an upload
//	target, err := statuspoll.Regex(`^(completed|failed)$`)
func Regex(pattern string) (Target, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return Target{}, fmt.Errorf("invalid target pattern %q: %w", pattern, err)
	}
	return Target{
		name:  "/" + pattern + "/i",
		match: re.MatchString,
	}, nil
}

// MustRegex is like [Regex] but panics if the pattern is invalid.
//
// Use this for constant patterns where an invalid regex is a programming error.
func MustRegex(pattern string) Target {
	t, err := Regex(pattern)
	if err != nil {
		panic("statuspoll: " + err.Error())
	}
	return t
}

// Custom returns a [Target] backed by an arbitrary predicate.
// The predicate receives the raw status text and is responsible for its own
// case handling.
func Custom(name string, fn func(status string) bool) Target {
	return Target{name: name, match: fn}
}

// firstMatch returns the first target that status satisfies.
func firstMatch(targets []Target, status string) (Target, bool) {
	for _, t := range targets {
		if t.Match(status) {
			return t, true
		}
	}
	return Target{}, false
}
