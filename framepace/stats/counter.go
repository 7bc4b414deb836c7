package stats

import "time"

// Snapshot is a read-only view of the pacing state for one frame,
// consumed by overlays and logging. It is informational only; nothing
// in the pacing loop reads it back.
type Snapshot struct {
	Frame     uint64
	FPS       float64
	Frametime time.Duration
	Target    time.Duration
	Margin    time.Duration
	Oversleep time.Duration
	Mode      string
}

// Counter measures the achieved frame rate over a sliding window.
// Counting frames over an interval is cheaper and steadier than
// inverting a single frametime.
type Counter struct {
	interval time.Duration
	frames   int
	last     time.Time
	fps      float64
}

// NewCounter creates a counter that refreshes its measurement every
// interval. An interval of zero defaults to one second.
func NewCounter(interval time.Duration) *Counter {
	if interval <= 0 {
		interval = time.Second
	}
	return &Counter{interval: interval, last: time.Now()}
}

// Tick records one completed frame and returns the current measurement.
func (c *Counter) Tick() float64 {
	c.frames++
	now := time.Now()
	if elapsed := now.Sub(c.last); elapsed >= c.interval {
		c.fps = float64(c.frames) / elapsed.Seconds()
		c.frames = 0
		c.last = now
	}
	return c.fps
}

// FPS returns the last completed measurement without recording a frame.
func (c *Counter) FPS() float64 {
	return c.fps
}
