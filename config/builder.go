package config

import (
	"fmt"

	"github.com/jpalmerr/statuspoll"
	"github.com/jpalmerr/statuspoll/internal/browser"
	"github.com/jpalmerr/statuspoll/internal/source"
)

// BuildOptions converts a parsed profile into poller options.
//
// The returned options set the name, targets and timing. Callers append
// their own logger and observers.
func BuildOptions(p ProfileConfig) ([]statuspoll.Option, error) {
	targets, err := BuildTargets(p.Targets)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.Name, err)
	}

	opts := []statuspoll.Option{
		statuspoll.WithName(p.Name),
		statuspoll.WithTarget(targets...),
	}

	if p.Interval != 0 {
		opts = append(opts, statuspoll.WithInterval(p.Interval.Duration()))
	}
	if p.Timeout != 0 {
		opts = append(opts, statuspoll.WithTimeout(p.Timeout.Duration()))
	}
	if p.MaxFailures != 0 {
		opts = append(opts, statuspoll.WithMaxConsecutiveFailures(p.MaxFailures))
	}

	return opts, nil
}

// BuildTargets converts target configs into matchers.
func BuildTargets(tcs []TargetConfig) ([]statuspoll.Target, error) {
	targets := make([]statuspoll.Target, 0, len(tcs))
	for _, tc := range tcs {
		t, err := buildTarget(tc)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// buildTarget converts one TargetConfig to a Target.
func buildTarget(tc TargetConfig) (statuspoll.Target, error) {
	switch tc.Type {
	case "", "contains":
		return statuspoll.Contains(tc.Value), nil
	case "exact":
		return statuspoll.Exact(tc.Value), nil
	case "regex":
		return statuspoll.Regex(tc.Value)
	default:
		return statuspoll.Target{}, fmt.Errorf("unknown target type %q", tc.Type)
	}
}

// BuildSteps converts a page source's steps into browser steps.
//
// The source URL is opened first, so the returned slice always begins with
// a navigate step.
func BuildSteps(sc SourceConfig) []browser.Step {
	steps := make([]browser.Step, 0, len(sc.Steps)+1)
	steps = append(steps, browser.Step{Action: browser.ActionNavigate, Value: sc.URL})
	for _, s := range sc.Steps {
		steps = append(steps, s.toStep())
	}
	return steps
}

// BuildHTTPSource creates the HTTP status source for an http profile.
func BuildHTTPSource(sc SourceConfig) (*source.HTTP, error) {
	if sc.Type != SourceHTTP {
		return nil, fmt.Errorf("source type %q is not %q", sc.Type, SourceHTTP)
	}

	var opts []source.HTTPOption
	if len(sc.Headers) > 0 {
		opts = append(opts, source.WithHeaders(sc.Headers))
	}
	if sc.Timeout != 0 {
		opts = append(opts, source.WithRequestTimeout(sc.Timeout.Duration()))
	}
	return source.NewHTTP(sc.URL, sc.JSONPath, opts...)
}

// BuildLaunchOptions returns the browser settings for a page profile.
func BuildLaunchOptions(sc SourceConfig) browser.LaunchOptions {
	return browser.LaunchOptions{
		Headless:      sc.IsHeadless(),
		ActionTimeout: sc.ActionTimeout.Duration(),
	}
}

func (s StepConfig) toStep() browser.Step {
	return browser.Step{
		Action:   browser.Action(s.Action),
		Selector: s.Selector,
		Value:    s.Value,
		Duration: s.Duration.Duration(),
	}
}
