// Package statuspoll waits for asynchronous workflow states exposed by a
// system under test, such as an invoice progressing to "Delivered" or a file
// upload reaching "Completed".
//
// Instead of fixed sleeps, a [Poller] samples a status [Accessor] on a fixed
// interval until the status matches a [Target], the time budget runs out, or
// the accessor keeps failing. Every run returns a [Result] holding the
// deduplicated trace of statuses it saw, so a failed wait explains how far the
// workflow progressed before it stalled.
//
// # Quick Start
//
//	read := func(ctx context.Context) (string, error) {
//	    return page.Locator("td.status").TextContent()
//	}
//
//	result, err := statuspoll.PollUntil(ctx, read,
//	    statuspoll.WithTargets("delivered"),
//	    statuspoll.WithInterval(time.Second),
//	    statuspoll.WithTimeout(5 * time.Minute),
//	)
//	if errors.Is(err, statuspoll.ErrTimeoutExceeded) {
//	    log.Printf("still %s after %s", result.FinalStatus(), result.Elapsed)
//	}
//
// # States
//
// A run starts in [StatePolling] and ends in exactly one terminal state:
//
//   - [StateSucceeded]: an observed status matched a target
//   - [StateTimedOut]: the timeout elapsed first ([ErrTimeoutExceeded])
//   - [StateFailed]: the accessor failed on too many consecutive ticks
//     ([ErrAccessorExhausted]) or reported cancellation ([ErrCancelled])
//
// Whether a timeout is fatal is left to the caller: the [Result] is returned
// in every case alongside the error.
//
// # Targets
//
// Targets are matched case-insensitively. [WithTargets] uses substring
// matching; [Exact], [Regex] and [Custom] build stricter targets for
// [WithTarget].
//
// # Architecture
//
// The library has no UI dependency. Adapters live under internal/:
//
//   - internal/browser: the browser driver contract and its playwright implementation
//   - internal/source: an HTTP/JSON status accessor
//
// The config package loads named poll profiles from YAML, and cmd/statuspoll
// runs them from the command line.
package statuspoll
