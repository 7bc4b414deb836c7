package timing

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Mode selects how the target frametime is derived.
type Mode int32

const (
	// Unlimited disables pacing entirely.
	Unlimited Mode = iota
	// Manual paces to a fixed configured frame rate.
	Manual
	// Auto paces to whatever cadence the environment is already
	// producing (e.g. display vsync), tracking the most recent
	// uncapped frametime instead of a fixed rate.
	Auto
)

func (m Mode) String() string {
	switch m {
	case Unlimited:
		return "unlimited"
	case Manual:
		return "manual"
	case Auto:
		return "auto"
	}
	return fmt.Sprintf("Mode(%d)", int32(m))
}

// MinRate is the floor applied to manual rates. Non-positive or absurdly
// low rates are clamped here rather than rejected at runtime.
const MinRate = 1.0

// Limiter holds the frame rate limiting configuration. Setters may be
// called from outside the render loop at any time; changes take effect
// on the next frame boundary. All state is atomic: there is a single
// writer and a single per-frame reader, and a read that is stale by one
// frame is harmless.
type Limiter struct {
	mode     atomic.Int32
	manual   atomic.Int64 // target frametime in ns for Manual mode
	observed atomic.Int64 // last uncapped frametime in ns, tracked for Auto
}

// NewLimiter creates a limiter in Auto mode.
func NewLimiter() *Limiter {
	l := &Limiter{}
	l.mode.Store(int32(Auto))
	return l
}

// SetMode switches the limiting mode. Switching to Manual keeps the
// previously configured rate. Setting the current mode again is a no-op.
func (l *Limiter) SetMode(m Mode) {
	l.mode.Store(int32(m))
}

// SetRate switches to Manual mode at the given frames per second.
// Rates below MinRate are clamped.
func (l *Limiter) SetRate(fps float64) {
	if fps < MinRate {
		fps = MinRate
	}
	l.manual.Store(int64(float64(time.Second) / fps))
	l.mode.Store(int32(Manual))
}

// Mode returns the current limiting mode.
func (l *Limiter) Mode() Mode {
	return Mode(l.mode.Load())
}

// Rate returns the configured manual rate in frames per second, or zero
// if none has been set.
func (l *Limiter) Rate() float64 {
	ns := l.manual.Load()
	if ns == 0 {
		return 0
	}
	return float64(time.Second) / float64(ns)
}

// Target returns the frametime the pacer should aim for on the next
// frame. Zero means no pacing: Unlimited mode, Manual mode with no rate
// configured yet, or Auto mode before any frame has been observed.
func (l *Limiter) Target() time.Duration {
	switch Mode(l.mode.Load()) {
	case Manual:
		return time.Duration(l.manual.Load())
	case Auto:
		return time.Duration(l.observed.Load())
	}
	return 0
}

// Observe feeds the latest measured frametime into the limiter. In Auto
// mode it becomes the next frame's target, so the pacer follows the
// cadence the environment is already running at.
func (l *Limiter) Observe(frametime time.Duration) {
	if frametime < 0 {
		frametime = 0
	}
	l.observed.Store(int64(frametime))
}
