package timing

import "time"

// FrameTimer measures the wall-clock duration of each frame between its
// two checkpoints: the start of render work and the hand-off to
// presentation. The previous frame's measurement feeds the next frame's
// sleep estimate.
type FrameTimer struct {
	clock      Clock
	frameStart time.Time
	measured   time.Duration
	started    bool
}

// NewFrameTimer creates a timer using the real clock.
func NewFrameTimer() *FrameTimer {
	return &FrameTimer{clock: DefaultClock()}
}

func newFrameTimer(clock Clock) *FrameTimer {
	return &FrameTimer{clock: clock}
}

// MarkStart records the current time as this frame's start.
func (t *FrameTimer) MarkStart() {
	t.frameStart = t.clock.Now()
	t.started = true
}

// MarkEnd records the current time as this frame's end and returns the
// elapsed render time of the frame that just completed.
func (t *FrameTimer) MarkEnd() time.Duration {
	if !t.started {
		return 0
	}
	t.measured = t.clock.Now().Sub(t.frameStart)
	return t.measured
}

// Elapsed returns the time since the current frame's start.
func (t *FrameTimer) Elapsed() time.Duration {
	if !t.started {
		return 0
	}
	return t.clock.Now().Sub(t.frameStart)
}

// Frametime returns the measured duration of the last completed frame,
// or zero if no frame has completed yet.
func (t *FrameTimer) Frametime() time.Duration {
	return t.measured
}
