package statuspoll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

const (
	defaultInterval    = time.Second
	defaultTimeout     = 10 * time.Minute
	defaultMaxFailures = 5
)

// Accessor reads the current status text from the system under test.
//
// An Accessor may fail transiently, for example when the status element has
// not been rendered yet; such failures are retried on the next tick. To stop
// a run early, return an error wrapping [ErrCancelled] or [context.Canceled].
type Accessor func(ctx context.Context) (string, error)

// Poller waits for an externally observed status to reach a target value.
//
// A Poller is immutable after [New] and may be reused; every call to
// [Poller.Poll] is an independent run with its own [History]. Runs against
// the same status source must not overlap.
type Poller struct {
	name        string
	targets     []Target
	interval    time.Duration
	timeout     time.Duration
	maxFailures int
	logger      *slog.Logger
	clock       Clock
	observers   []func(Snapshot)
}

// New creates a [Poller] with the given options.
//
// At least one target must be configured via [WithTargets] or [WithTarget].
// Other options have defaults:
//   - Interval: 1 second
//   - Timeout: 10 minutes
//   - Max consecutive failures: 5
//
// Returns an error wrapping [ErrInvalidConfig] if no targets are configured
// or if any option is invalid.
//
// Example:
//
//	p, err := statuspoll.New(
//	    statuspoll.WithTargets("delivered"),
//	    statuspoll.WithInterval(2 * time.Second),
//	    statuspoll.WithTimeout(5 * time.Minute),
//	)
func New(opts ...Option) (*Poller, error) {
	cfg := &pollConfig{
		interval:    defaultInterval,
		timeout:     defaultTimeout,
		maxFailures: defaultMaxFailures,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.targets) == 0 {
		return nil, invalidConfig("at least one target status is required")
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.name != "" {
		logger = logger.With("poller", cfg.name)
	}

	clock := cfg.clock
	if clock == nil {
		clock = realClock{}
	}

	return &Poller{
		name:        cfg.name,
		targets:     cfg.targets,
		interval:    cfg.interval,
		timeout:     cfg.timeout,
		maxFailures: cfg.maxFailures,
		logger:      logger,
		clock:       clock,
		observers:   cfg.observers,
	}, nil
}

// PollUntil builds a [Poller] from opts and runs it once against read.
//
// It is shorthand for New followed by [Poller.Poll].
func PollUntil(ctx context.Context, read Accessor, opts ...Option) (Result, error) {
	p, err := New(opts...)
	if err != nil {
		return Result{}, err
	}
	return p.Poll(ctx, read)
}

// Targets returns the names of the configured targets.
func (p *Poller) Targets() []string {
	names := make([]string, len(p.targets))
	for i, t := range p.targets {
		names[i] = t.Name()
	}
	return names
}

// Interval returns the delay between accessor reads.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Timeout returns the maximum total wait for a target status.
func (p *Poller) Timeout() time.Duration {
	return p.timeout
}

// Poll samples read until it reports a target status, the timeout elapses,
// or the accessor fails too often.
//
// The first read happens immediately. After each read that does not match,
// Poll waits for the interval (shortened so it never sleeps past the
// deadline) and reads again; once the timeout has elapsed the run ends after
// that final read. Reads receive a context that expires at timeout plus one
// interval, so a run finishes within that bound even if the accessor blocks;
// a read cut off by that deadline ends the run in [StateTimedOut].
//
// The returned [Result] is always populated with the trace observed so far.
// The error is nil on success and a [*PollError] otherwise, unwrapping to
// [ErrTimeoutExceeded], [ErrAccessorExhausted] or [ErrCancelled]. If read is
// nil, Poll returns an error wrapping [ErrInvalidConfig] without waiting.
//
// Cancelling ctx, or an accessor error wrapping [ErrCancelled] or
// [context.Canceled], ends the run in [StateFailed] without further retries.
// An accessor's own [context.DeadlineExceeded] is a transient failure.
func (p *Poller) Poll(ctx context.Context, read Accessor) (Result, error) {
	if read == nil {
		return Result{}, invalidConfig("status accessor cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	r := &run{poller: p, start: p.clock.Now()}

	// reads share one hard deadline so a blocking accessor cannot hold the
	// run past timeout plus one interval
	runCtx, cancel := context.WithTimeout(ctx, p.timeout+p.interval)
	defer cancel()

	for {
		if err := ctx.Err(); err != nil {
			return r.finish(StateFailed, ErrCancelled, err)
		}
		if runCtx.Err() != nil {
			return r.finish(StateTimedOut, ErrTimeoutExceeded, r.lastErr)
		}

		r.attempts++
		status, err := p.safeRead(runCtx, read)
		now := p.clock.Now()
		elapsed := now.Sub(r.start)

		if err != nil {
			switch {
			case ctx.Err() != nil:
				return r.finish(StateFailed, ErrCancelled, err)
			case runCtx.Err() != nil:
				return r.finish(StateTimedOut, ErrTimeoutExceeded, err)
			case errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled):
				return r.finish(StateFailed, ErrCancelled, err)
			}
			r.failures++
			r.lastErr = err
			p.logger.Warn("status read failed",
				"attempt", r.attempts,
				"consecutive_failures", r.failures,
				"error", err.Error(),
			)
			if r.failures >= p.maxFailures {
				return r.finish(StateFailed, ErrAccessorExhausted, err)
			}
		} else {
			r.failures = 0
			r.lastErr = nil

			snap := Snapshot{Status: status, ObservedAt: now}
			if r.history.observe(snap) {
				p.logger.Debug("status changed",
					"status", status,
					"attempt", r.attempts,
					"elapsed_ms", elapsed.Milliseconds(),
				)
				p.notify(snap)
			}

			if t, ok := firstMatch(p.targets, status); ok {
				r.matched = t.Name()
				return r.finish(StateSucceeded, nil, nil)
			}
		}

		if elapsed >= p.timeout {
			return r.finish(StateTimedOut, ErrTimeoutExceeded, r.lastErr)
		}

		wait := p.interval
		if remaining := p.timeout - elapsed; remaining < wait {
			wait = remaining
		}

		select {
		case <-runCtx.Done():
			if err := ctx.Err(); err != nil {
				return r.finish(StateFailed, ErrCancelled, err)
			}
			return r.finish(StateTimedOut, ErrTimeoutExceeded, r.lastErr)
		case <-p.clock.After(wait):
		}
	}
}

// run is the mutable state of a single Poll call.
type run struct {
	poller   *Poller
	start    time.Time
	history  History
	attempts int
	failures int
	lastErr  error
	matched  string
}

// finish moves the run into a terminal state and builds its outcome.
func (r *run) finish(state State, kind error, cause error) (Result, error) {
	p := r.poller
	result := Result{
		State:    state,
		History:  r.history,
		Matched:  r.matched,
		Attempts: r.attempts,
		Elapsed:  p.clock.Now().Sub(r.start),
	}

	logAttrs := []any{
		"state", state.String(),
		"trace", r.history.String(),
		"attempts", r.attempts,
		"elapsed_ms", result.Elapsed.Milliseconds(),
	}

	if state == StateSucceeded {
		p.logger.Info("poll succeeded", append(logAttrs, "matched", r.matched)...)
		return result, nil
	}

	if cause != nil {
		logAttrs = append(logAttrs, "error", cause.Error())
	}
	p.logger.Warn("poll ended without reaching target", logAttrs...)

	return result, &PollError{
		Kind:    kind,
		State:   state,
		History: r.history,
		Cause:   cause,
	}
}

// safeRead calls the accessor with panic recovery.
// A panic is logged with a correlation ID and reported as a failed read.
func (p *Poller) safeRead(ctx context.Context, read Accessor) (status string, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			p.logger.Error("status accessor panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			status = ""
			err = fmt.Errorf("status accessor panic (correlation_id: %s)", correlationID)
		}
	}()
	return read(ctx)
}

// notify delivers a new snapshot to every observer.
func (p *Poller) notify(s Snapshot) {
	for _, fn := range p.observers {
		p.invokeObserverSafe(fn, s)
	}
}

// invokeObserverSafe calls an observer with panic recovery.
// Panics are logged but do not propagate.
func (p *Poller) invokeObserverSafe(fn func(Snapshot), s Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("status observer panicked",
				"correlation_id", uuid.NewString(),
				"panic", r,
				"status", s.Status,
			)
		}
	}()
	fn(s)
}
