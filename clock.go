package statuspoll

import "time"

// Clock supplies the current time and inter-tick delays to a [Poller].
//
// The default clock uses the time package. Tests substitute a fake clock so
// timeout behaviour can be verified without real waiting.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
