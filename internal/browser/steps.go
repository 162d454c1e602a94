package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Action is the kind of browser interaction a [Step] performs.
type Action string

const (
	ActionNavigate Action = "navigate"
	ActionClick    Action = "click"
	ActionFill     Action = "fill"
	ActionWait     Action = "wait"
	ActionUpload   Action = "upload"
)

// Step is one interaction replayed before a status wait, such as opening the
// upload dialog and choosing a file.
type Step struct {
	Action Action

	// Selector locates the element for click, fill and upload.
	Selector string

	// Value is the URL for navigate, the text for fill and the file path
	// for upload.
	Value string

	// Duration is the pause for wait.
	Duration time.Duration
}

// Validate checks that the step has the fields its action needs.
func (s Step) Validate() error {
	switch s.Action {
	case ActionNavigate:
		if s.Value == "" {
			return errors.New("navigate requires a url")
		}
	case ActionClick:
		if s.Selector == "" {
			return errors.New("click requires a selector")
		}
	case ActionFill:
		if s.Selector == "" {
			return errors.New("fill requires a selector")
		}
	case ActionUpload:
		if s.Selector == "" || s.Value == "" {
			return errors.New("upload requires a selector and a file path")
		}
	case ActionWait:
		if s.Duration <= 0 {
			return errors.New("wait requires a positive duration")
		}
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}
	return nil
}

// String describes the step for logs and errors.
func (s Step) String() string {
	switch s.Action {
	case ActionNavigate:
		return "navigate " + s.Value
	case ActionWait:
		return "wait " + s.Duration.String()
	case ActionUpload:
		return fmt.Sprintf("upload %s to %s", s.Value, s.Selector)
	default:
		return string(s.Action) + " " + s.Selector
	}
}

// RunSteps performs steps in order and stops at the first failure.
//
// The returned error names the failing step by its 1-based position. Fill
// values are never logged since they may hold credentials.
func RunSteps(ctx context.Context, d Driver, steps []Step, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	for i, step := range steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}

		logger.Info("running step", "step", i+1, "action", step.String())

		var err error
		switch step.Action {
		case ActionNavigate:
			err = d.Navigate(ctx, step.Value)
		case ActionClick:
			err = d.Click(ctx, step.Selector)
		case ActionFill:
			err = d.Fill(ctx, step.Selector, step.Value)
		case ActionWait:
			err = d.Wait(ctx, step.Duration)
		case ActionUpload:
			err = d.UploadFile(ctx, step.Selector, step.Value)
		}
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step, err)
		}
	}
	return nil
}
