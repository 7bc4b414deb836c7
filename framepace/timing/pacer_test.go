package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSleeper advances the mock clock by the requested duration (plus a
// configurable overshoot) and records every request, so pacing behavior
// can be asserted without real sleeping.
type fakeSleeper struct {
	clock     *mockClock
	overshoot time.Duration
	requests  []time.Duration
}

func (s *fakeSleeper) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	s.requests = append(s.requests, d)
	s.clock.Advance(d + s.overshoot)
}

func (s *fakeSleeper) reset() {
	s.requests = nil
}

func newTestPacer(limiter *Limiter) (*Pacer, *mockClock, *fakeSleeper) {
	clock := newMockClock()
	sleeper := &fakeSleeper{clock: clock}
	return newPacer(limiter, clock, sleeper), clock, sleeper
}

// runFrame simulates one frame with the given amount of render work.
func runFrame(p *Pacer, clock *mockClock, work time.Duration) {
	p.BeginFrame()
	clock.Advance(work)
	p.PrePresent()
	p.EndFrame()
}

func TestPacerColdStartDoesNotSleep(t *testing.T) {
	limiter := NewLimiter()
	limiter.SetRate(60)
	p, clock, sleeper := newTestPacer(limiter)

	runFrame(p, clock, 10*time.Millisecond)

	assert.Empty(t, sleeper.requests, "first frame has no measurement to pace against")
	assert.Equal(t, 10*time.Millisecond, p.Frametime())
}

func TestPacerUnlimitedNeverSleeps(t *testing.T) {
	limiter := NewLimiter()
	limiter.SetMode(Unlimited)
	p, clock, sleeper := newTestPacer(limiter)

	for i := 0; i < 50; i++ {
		runFrame(p, clock, 5*time.Millisecond)
	}

	assert.Empty(t, sleeper.requests)
	assert.Equal(t, 5*time.Millisecond, p.Frametime())
}

func TestPacerSteadyState60FPS(t *testing.T) {
	const (
		work   = 10 * time.Millisecond
		target = time.Second / 60
	)

	limiter := NewLimiter()
	limiter.SetRate(60)
	p, clock, sleeper := newTestPacer(limiter)

	// Warm-up frame, no pacing yet.
	runFrame(p, clock, work)

	for i := 0; i < 100; i++ {
		sleeper.reset()
		runFrame(p, clock, work)

		require.NotEmpty(t, sleeper.requests, "frame %d should have paced", i)

		// The forward estimate covers the budget minus the safety
		// margin; the top-up covers the rest.
		estimate := sleeper.requests[0]
		assert.InDelta(t, (target - work).Seconds(), estimate.Seconds(),
			maxMargin.Seconds(), "estimate sleep should be roughly target minus work")

		assert.InDelta(t, target.Seconds(), p.Frametime().Seconds(),
			(time.Millisecond).Seconds(), "frame %d landed off target", i)
	}
}

func TestPacerOverrunningFrameNeverSleeps(t *testing.T) {
	const work = 40 * time.Millisecond

	limiter := NewLimiter()
	limiter.SetRate(30)
	p, clock, sleeper := newTestPacer(limiter)

	for i := 0; i < 20; i++ {
		runFrame(p, clock, work)
	}

	assert.Empty(t, sleeper.requests, "an overrunning frame has no sleep budget")
	assert.Equal(t, work, p.Frametime(), "pacing cannot speed up a slow frame")
}

func TestPacerEstimateBudgetMonotonicInElapsed(t *testing.T) {
	limiter := NewLimiter()
	limiter.SetRate(30)

	var prev time.Duration
	for i, work := range []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		15 * time.Millisecond,
		20 * time.Millisecond,
	} {
		p, clock, sleeper := newTestPacer(limiter)
		runFrame(p, clock, work) // warm up
		sleeper.reset()
		runFrame(p, clock, work)

		require.NotEmpty(t, sleeper.requests)
		estimate := sleeper.requests[0]
		if i > 0 {
			assert.Less(t, estimate, prev,
				"more elapsed render time must shrink the estimate budget")
		}
		prev = estimate
	}
}

func TestPacerTopUpNeverNegative(t *testing.T) {
	limiter := NewLimiter()
	limiter.SetRate(60)
	p, clock, sleeper := newTestPacer(limiter)

	// Overshooting sleeper: the estimate sleep already lands past the
	// target, so the top-up must be skipped rather than requested with
	// a negative duration.
	sleeper.overshoot = 3 * time.Millisecond

	for i := 0; i < 30; i++ {
		runFrame(p, clock, 10*time.Millisecond)
		for _, req := range sleeper.requests {
			assert.Greater(t, req, time.Duration(0))
		}
	}
}

func TestPacerMarginAdaptsToOversleep(t *testing.T) {
	limiter := NewLimiter()
	limiter.SetRate(60)
	p, clock, sleeper := newTestPacer(limiter)

	sleeper.overshoot = time.Millisecond

	for i := 0; i < 100; i++ {
		runFrame(p, clock, 10*time.Millisecond)
	}

	assert.Greater(t, p.Margin(), defaultMargin,
		"persistent oversleep should grow the safety margin")
	assert.LessOrEqual(t, p.Margin(), maxMargin)
	assert.Greater(t, p.Oversleep(), time.Duration(0))
}

func TestPacerAutoModeTracksCadence(t *testing.T) {
	limiter := NewLimiter()
	p, clock, _ := newTestPacer(limiter)

	// The cadence rises and falls again: the target must follow the
	// render time in both directions, not just upward.
	cadences := []time.Duration{
		16 * time.Millisecond,
		18 * time.Millisecond,
		21 * time.Millisecond,
		18 * time.Millisecond,
		16 * time.Millisecond,
		12 * time.Millisecond,
	}
	for _, work := range cadences {
		runFrame(p, clock, work)
		assert.Equal(t, work, limiter.Target(),
			"Auto target should track the uncapped render time within one frame")
	}
}

func TestPacerAutoModeRecoversAfterSpike(t *testing.T) {
	const (
		steady = 16 * time.Millisecond
		spike  = 30 * time.Millisecond
	)

	limiter := NewLimiter()
	p, clock, _ := newTestPacer(limiter)

	for i := 0; i < 5; i++ {
		runFrame(p, clock, steady)
	}
	runFrame(p, clock, spike)
	assert.Equal(t, spike, limiter.Target())

	// One slow frame must not stick: once render times are back to
	// normal the target has to come back down with them, even though
	// the pacing sleeps pad the measured frametime up to the spike.
	for i := 0; i < 10; i++ {
		runFrame(p, clock, steady)
	}
	assert.Equal(t, steady, limiter.Target(),
		"Auto target must return to the uncapped cadence after a spike")
	assert.Less(t, limiter.Target(), spike)
}

func TestPacerSetMarginBounds(t *testing.T) {
	limiter := NewLimiter()
	p, _, _ := newTestPacer(limiter)

	p.SetMargin(10 * time.Millisecond)
	assert.Equal(t, maxMargin, p.Margin())

	p.SetMargin(time.Nanosecond)
	assert.Equal(t, minMargin, p.Margin())

	p.SetMargin(time.Millisecond)
	assert.Equal(t, time.Millisecond, p.Margin())
}

func TestPacerIgnoresOutOfOrderCheckpoints(t *testing.T) {
	limiter := NewLimiter()
	limiter.SetRate(60)
	p, clock, sleeper := newTestPacer(limiter)

	// Checkpoints before any frame started are ignored.
	p.PrePresent()
	p.EndFrame()
	assert.Empty(t, sleeper.requests)

	// A duplicate BeginFrame mid-frame must not reset the start time.
	p.BeginFrame()
	clock.Advance(5 * time.Millisecond)
	p.BeginFrame()
	clock.Advance(5 * time.Millisecond)
	p.PrePresent()
	p.EndFrame()
	assert.Equal(t, 10*time.Millisecond, p.Frametime())

	// The pacer keeps working normally afterwards.
	sleeper.reset()
	runFrame(p, clock, 10*time.Millisecond)
	assert.NotEmpty(t, sleeper.requests)
}

func TestPacerModeChangeTakesEffectNextFrame(t *testing.T) {
	limiter := NewLimiter()
	limiter.SetRate(60)
	p, clock, sleeper := newTestPacer(limiter)

	runFrame(p, clock, 10*time.Millisecond) // warm up
	runFrame(p, clock, 10*time.Millisecond)
	require.NotEmpty(t, sleeper.requests)

	limiter.SetMode(Unlimited)
	sleeper.reset()
	runFrame(p, clock, 10*time.Millisecond)
	assert.Empty(t, sleeper.requests, "unlimited mode must stop pacing on the next frame")
}
