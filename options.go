package statuspoll

import (
	"log/slog"
	"strings"
	"time"
)

// pollConfig holds mutable state during Poller construction.
type pollConfig struct {
	name        string
	targets     []Target
	interval    time.Duration
	timeout     time.Duration
	maxFailures int
	logger      *slog.Logger
	clock       Clock
	observers   []func(Snapshot)
}

// Option is a function that configures a [Poller] during construction.
//
// Option implements the functional options pattern. Options return an error
// wrapping [ErrInvalidConfig] if validation fails, so a bad configuration is
// rejected before any status is read.
//
// Built-in options: [WithTargets], [WithTarget], [WithInterval],
// [WithTimeout], [WithMaxConsecutiveFailures], [WithLogger], [WithClock],
// [WithObserver], [WithName].
type Option func(*pollConfig) error

// WithTargets adds acceptable terminal statuses matched with [Contains].
//
// Can be called multiple times; the run succeeds on the first status that
// matches any target. Empty strings are rejected since they would match
// every status.
//
// Example:
//
//	p, err := statuspoll.New(statuspoll.WithTargets("delivered", "submitted"))
func WithTargets(statuses ...string) Option {
	return func(cfg *pollConfig) error {
		for _, s := range statuses {
			if strings.TrimSpace(s) == "" {
				return invalidConfig("target status cannot be empty")
			}
			cfg.targets = append(cfg.targets, Contains(s))
		}
		return nil
	}
}

// WithTarget adds pre-built [Target] values, such as those from [Regex] or
// [Exact].
func WithTarget(targets ...Target) Option {
	return func(cfg *pollConfig) error {
		for _, t := range targets {
			if t.match == nil {
				if strings.TrimSpace(t.name) == "" {
					return invalidConfig("target status cannot be empty")
				}
				return invalidConfig("target %q has no matcher", t.name)
			}
			cfg.targets = append(cfg.targets, t)
		}
		return nil
	}
}

// WithInterval sets the delay between accessor reads.
// Defaults to 1 second if not specified.
//
// Returns an error if the duration is zero or negative.
func WithInterval(d time.Duration) Option {
	return func(cfg *pollConfig) error {
		if d <= 0 {
			return invalidConfig("poll interval must be positive, got %s", d)
		}
		cfg.interval = d
		return nil
	}
}

// WithTimeout sets the maximum total wait for a target status.
// Defaults to 10 minutes if not specified.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) Option {
	return func(cfg *pollConfig) error {
		if d <= 0 {
			return invalidConfig("timeout must be positive, got %s", d)
		}
		cfg.timeout = d
		return nil
	}
}

// WithMaxConsecutiveFailures sets how many accessor failures in a row end the
// run with [ErrAccessorExhausted]. Any successful read resets the count.
// Defaults to 5.
//
// Returns an error if n is zero or negative.
func WithMaxConsecutiveFailures(n int) Option {
	return func(cfg *pollConfig) error {
		if n <= 0 {
			return invalidConfig("max consecutive failures must be positive, got %d", n)
		}
		cfg.maxFailures = n
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the poller.
//
// If not specified, [slog.Default] is used. Returns an error if the logger
// is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *pollConfig) error {
		if logger == nil {
			return invalidConfig("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithClock replaces the time source used for timestamps, elapsed time and
// inter-tick delays. Intended for tests.
func WithClock(c Clock) Option {
	return func(cfg *pollConfig) error {
		if c == nil {
			return invalidConfig("clock cannot be nil")
		}
		cfg.clock = c
		return nil
	}
}

// WithObserver registers a function called each time a new distinct status
// is appended to the history.
//
// Observers run synchronously on the polling goroutine, in registration
// order, and should return quickly. Panics are recovered and logged.
// Nil observers are silently ignored.
//
// Example:
//
//	p, err := statuspoll.New(
//	    statuspoll.WithTargets("completed"),
//	    statuspoll.WithObserver(func(s statuspoll.Snapshot) {
//	        fmt.Println("upload status:", s.Status)
//	    }),
//	)
func WithObserver(fn func(Snapshot)) Option {
	return func(cfg *pollConfig) error {
		if fn == nil {
			return nil
		}
		cfg.observers = append(cfg.observers, fn)
		return nil
	}
}

// WithName labels the poller in log output, e.g. "invoice INV-1042".
func WithName(name string) Option {
	return func(cfg *pollConfig) error {
		cfg.name = name
		return nil
	}
}
