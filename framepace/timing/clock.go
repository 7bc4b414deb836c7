package timing

import "time"

// Clock abstracts wall-clock reads so pacing logic can be tested with
// deterministic timestamps.
type Clock interface {
	Now() time.Time
}

// Sleeper blocks the calling goroutine for a requested duration.
type Sleeper interface {
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// DefaultClock returns a Clock backed by time.Now.
func DefaultClock() Clock { return realClock{} }
