package timing

import (
	"log/slog"
	"time"
)

// Default safety margin and its adaptive bounds. The margin is
// subtracted from the estimate sleep so that estimation error never
// pushes the frame past its deadline; the final top-up sleep then
// covers whatever the margin left on the table.
const (
	defaultMargin = 500 * time.Microsecond
	minMargin     = 50 * time.Microsecond
	maxMargin     = 2 * time.Millisecond
)

// phase tracks where the pacer is in the frame lifecycle so that
// out-of-order checkpoint calls can be detected instead of silently
// corrupting the timing state.
type phase int32

const (
	phaseIdle phase = iota
	phaseRendering
	phasePresenting
)

// Pacer orchestrates frame pacing. The host render loop calls its three
// checkpoints once per frame, in order, from the render goroutine:
//
//	BeginFrame  - render work for the frame is starting
//	PrePresent  - render work is queued, frame is about to be presented
//	EndFrame    - frame has been handed off to presentation
//
// PrePresent performs both sleeps: an estimate sleep sized from the
// target frametime minus elapsed time and the safety margin, then a
// top-up sleep that corrects the estimate against a fresh clock read.
// Sleeping here, at the tail of the frame, is what keeps latency low:
// the next frame's input is read immediately before it is rendered.
type Pacer struct {
	clock   Clock
	sleeper Sleeper
	limiter *Limiter
	timer   *FrameTimer

	phase  phase
	warmed bool

	margin    time.Duration
	oversleep time.Duration // EMA of how far sleeps overshot their request
	slept     time.Duration // actual time spent in this frame's pacing sleeps
}

// NewPacer creates a pacer driven by the real clock and a SpinSleeper.
func NewPacer(limiter *Limiter) *Pacer {
	return newPacer(limiter, DefaultClock(), NewSpinSleeper())
}

func newPacer(limiter *Limiter, clock Clock, sleeper Sleeper) *Pacer {
	return &Pacer{
		clock:   clock,
		sleeper: sleeper,
		limiter: limiter,
		timer:   newFrameTimer(clock),
		margin:  defaultMargin,
	}
}

// SetMargin overrides the starting safety margin. It is still adapted
// frame to frame within the configured bounds.
func (p *Pacer) SetMargin(margin time.Duration) {
	if margin < minMargin {
		margin = minMargin
	}
	if margin > maxMargin {
		margin = maxMargin
	}
	p.margin = margin
}

// BeginFrame marks the start of the frame's render work.
func (p *Pacer) BeginFrame() {
	if p.phase != phaseIdle {
		slog.Warn("pacer checkpoint out of order, ignoring", "checkpoint", "BeginFrame")
		return
	}
	p.phase = phaseRendering
	p.slept = 0
	p.timer.MarkStart()
}

// PrePresent runs the two pacing sleeps. It must be called after the
// frame's render work is queued, immediately before presentation.
func (p *Pacer) PrePresent() {
	if p.phase != phaseRendering {
		slog.Warn("pacer checkpoint out of order, ignoring", "checkpoint", "PrePresent")
		return
	}
	p.phase = phasePresenting

	target := p.limiter.Target()
	if target <= 0 || !p.warmed {
		// Unlimited, or cold start with nothing measured yet.
		return
	}

	sleepStart := p.clock.Now()
	requested := time.Duration(0)

	// Estimate sleep: leave the safety margin unslept so estimation
	// error cannot push the frame past the deadline.
	if budget := target - p.timer.Elapsed() - p.margin; budget > 0 {
		requested += budget
		p.sleeper.Sleep(budget)
	}

	// Top-up sleep: re-read the clock and cover exactly what remains,
	// correcting whatever the estimate got wrong.
	if remaining := target - p.timer.Elapsed(); remaining > 0 {
		requested += remaining
		p.sleeper.Sleep(remaining)
	}

	if requested > 0 {
		p.slept = p.clock.Now().Sub(sleepStart)
		p.observeSleep(requested, p.slept)
	}
}

// EndFrame marks the end of the frame and feeds the measurement back
// into the estimator (and the limiter, for Auto mode).
func (p *Pacer) EndFrame() {
	if p.phase != phasePresenting {
		slog.Warn("pacer checkpoint out of order, ignoring", "checkpoint", "EndFrame")
		return
	}
	p.phase = phaseIdle
	p.warmed = true

	frametime := p.timer.MarkEnd()

	// Feed the limiter the uncapped frametime: the measurement minus
	// this frame's own pacing sleeps. Observing the padded frametime
	// would ratchet the Auto target up after a slow frame and never
	// let it recover, with the pacing layer chasing its own tail.
	uncapped := frametime - p.slept
	if uncapped < 0 {
		uncapped = 0
	}
	p.limiter.Observe(uncapped)
}

// observeSleep updates the rolling oversleep error and adapts the
// safety margin toward it, bounded so a single outlier cannot swing the
// margin wildly.
func (p *Pacer) observeSleep(requested, actual time.Duration) {
	err := actual - requested
	if err < 0 {
		err = 0
	}
	p.oversleep += (err - p.oversleep) / 8
	p.margin += (p.oversleep - p.margin) / 8
	if p.margin < minMargin {
		p.margin = minMargin
	}
	if p.margin > maxMargin {
		p.margin = maxMargin
	}
}

// Frametime returns the measured duration of the last completed frame.
func (p *Pacer) Frametime() time.Duration {
	return p.timer.Frametime()
}

// Margin returns the current safety margin.
func (p *Pacer) Margin() time.Duration {
	return p.margin
}

// Oversleep returns the rolling estimate of sleep overshoot.
func (p *Pacer) Oversleep() time.Duration {
	return p.oversleep
}
