package timing

import (
	"runtime"
	"time"
)

// spinGuard is the tail of every sleep that is busy-waited instead of
// handed to the OS. Sleep granularity on some platforms exceeds 10ms, so
// the coarse sleep always stops short and the spin covers the rest.
const spinGuard = 2 * time.Millisecond

// SpinSleeper sleeps with sub-millisecond accuracy by combining a coarse
// OS sleep with a busy-wait for the final stretch. It trades a small
// amount of CPU for precision; a plain time.Sleep can overshoot by more
// than a full frame on coarse-tick systems.
type SpinSleeper struct {
	clock Clock
}

// NewSpinSleeper creates a sleeper using the real clock.
func NewSpinSleeper() *SpinSleeper {
	return &SpinSleeper{clock: DefaultClock()}
}

// Sleep blocks for at least d. Durations <= 0 return immediately.
func (s *SpinSleeper) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}

	deadline := s.clock.Now().Add(d)
	if d > spinGuard {
		time.Sleep(d - spinGuard)
	}
	for s.clock.Now().Before(deadline) {
		runtime.Gosched()
	}
}
