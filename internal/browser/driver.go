// Package browser adapts browser automation to statuspoll.
//
// [Driver] is the minimal capability set the regression flows need from a
// browser. [Playwright] implements it with playwright-go; [StatusAccessor]
// turns any Driver into a [statuspoll.Accessor], and [RunSteps] replays the
// navigation and form interactions that precede a wait.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jpalmerr/statuspoll"
)

// ErrEmptyStatus is returned by a [StatusAccessor] when the status element
// exists but has no text yet.
var ErrEmptyStatus = errors.New("status element is empty")

// ErrElementNotFound is returned by [Driver.ReadText] when no element
// matches the selector yet.
var ErrElementNotFound = errors.New("no element matches selector")

// Driver is the browser contract consumed by this package.
//
// Implementations own a single page; calls must not be made concurrently.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, text string) error
	ReadText(ctx context.Context, selector string) (string, error)
	Wait(ctx context.Context, d time.Duration) error
	UploadFile(ctx context.Context, selector, path string) error
}

// StatusAccessor returns a [statuspoll.Accessor] that reads the text of
// selector through d.
//
// Whitespace is collapsed so "In\n  Progress" reads as "In Progress". An
// element that is missing or empty is a failed read; a cancelled ctx is
// reported as [statuspoll.ErrCancelled].
func StatusAccessor(d Driver, selector string) statuspoll.Accessor {
	return func(ctx context.Context) (string, error) {
		text, err := d.ReadText(ctx, selector)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", fmt.Errorf("%w: %w", statuspoll.ErrCancelled, ctxErr)
			}
			return "", fmt.Errorf("read %s: %w", selector, err)
		}

		text = strings.Join(strings.Fields(text), " ")
		if text == "" {
			return "", fmt.Errorf("%w: %s", ErrEmptyStatus, selector)
		}
		return text, nil
	}
}
