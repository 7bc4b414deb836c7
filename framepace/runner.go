package framepace

import (
	"log/slog"
	"time"

	"github.com/valerio/go-framepace/framepace/backend"
	"github.com/valerio/go-framepace/framepace/stats"
	"github.com/valerio/go-framepace/framepace/timing"
)

// rateStep is how much the +/- actions move the manual target rate.
const rateStep = 5.0

// Config holds the runner's configuration, assembled from CLI flags.
type Config struct {
	Title string
	// Mode is the starting limiter mode.
	Mode timing.Mode
	// Rate is the manual target rate in frames per second, used when
	// Mode is Manual and kept as the rate to return to when cycling
	// modes.
	Rate float64
	// Work simulates per-frame render work by busy-waiting for this
	// long inside each frame.
	Work time.Duration
	// Margin overrides the pacer's starting safety margin when > 0.
	Margin time.Duration
	// MaxFrames stops the loop after this many frames; 0 means run
	// until the backend requests quit.
	MaxFrames int
	// StatsInterval is how often pacing stats are logged; 0 disables
	// periodic logging.
	StatsInterval time.Duration
}

// Runner owns the frame loop: it drives the backend through each frame
// and calls the pacer's checkpoints around it.
type Runner struct {
	config  Config
	backend backend.Backend
	limiter *timing.Limiter
	pacer   *timing.Pacer
	counter *stats.Counter

	frame    uint64
	lastRate float64
	running  bool
}

// NewRunner assembles a runner for the given backend.
func NewRunner(b backend.Backend, config Config) *Runner {
	limiter := timing.NewLimiter()
	switch config.Mode {
	case timing.Manual:
		if config.Rate > 0 {
			limiter.SetRate(config.Rate)
		} else {
			// Rate is seeded from the display refresh rate after the
			// backend is up, see Run.
			limiter.SetMode(timing.Manual)
		}
	default:
		limiter.SetMode(config.Mode)
	}

	pacer := timing.NewPacer(limiter)
	if config.Margin > 0 {
		pacer.SetMargin(config.Margin)
	}

	rate := config.Rate
	if rate <= 0 {
		rate = 60
	}

	return &Runner{
		config:   config,
		backend:  b,
		limiter:  limiter,
		pacer:    pacer,
		counter:  stats.NewCounter(time.Second),
		lastRate: rate,
	}
}

// Limiter returns the runner's limiter, so callers can reconfigure
// pacing while the loop is running.
func (r *Runner) Limiter() *timing.Limiter {
	return r.limiter
}

// Run executes the frame loop until the backend requests quit or the
// configured frame count is reached.
func (r *Runner) Run() error {
	if err := r.backend.Init(backend.Config{
		Title:     r.config.Title,
		MaxFrames: r.config.MaxFrames,
	}); err != nil {
		return err
	}
	// Deferred in this order so the exit stats are logged after the
	// backend has released the terminal and restored the default
	// logger.
	defer r.logStats()
	defer r.backend.Cleanup()

	if r.limiter.Mode() == timing.Manual && r.limiter.Rate() <= 0 {
		rate := r.lastRate
		if rr, ok := r.backend.(backend.RefreshRater); ok {
			if detected, ok := rr.RefreshRate(); ok {
				rate = detected
				slog.Info("seeding rate from display refresh", "rate", rate)
			}
		}
		r.limiter.SetRate(rate)
		r.lastRate = rate
	}

	slog.Info("starting frame loop",
		"mode", r.limiter.Mode().String(),
		"rate", r.limiter.Rate(),
		"work", r.config.Work)

	lastLog := time.Now()
	r.running = true

	for r.running {
		r.pacer.BeginFrame()

		simulateWork(r.config.Work)

		actions, err := r.backend.Update(r.snapshot())
		if err != nil {
			return err
		}

		r.pacer.PrePresent()
		if err := r.backend.Present(); err != nil {
			return err
		}
		r.pacer.EndFrame()

		r.frame++
		r.counter.Tick()

		for _, act := range actions {
			r.handleAction(act)
		}

		if r.config.MaxFrames > 0 && int(r.frame) >= r.config.MaxFrames {
			r.running = false
		}

		if r.config.StatsInterval > 0 && time.Since(lastLog) >= r.config.StatsInterval {
			lastLog = time.Now()
			r.logStats()
		}
	}

	return nil
}

func (r *Runner) snapshot() stats.Snapshot {
	return stats.Snapshot{
		Frame:     r.frame,
		FPS:       r.counter.FPS(),
		Frametime: r.pacer.Frametime(),
		Target:    r.limiter.Target(),
		Margin:    r.pacer.Margin(),
		Oversleep: r.pacer.Oversleep(),
		Mode:      r.limiter.Mode().String(),
	}
}

func (r *Runner) handleAction(act backend.Action) {
	switch act {
	case backend.ActionQuit:
		r.running = false
	case backend.ActionCycleMode:
		switch r.limiter.Mode() {
		case timing.Auto:
			r.limiter.SetMode(timing.Unlimited)
		case timing.Unlimited:
			r.limiter.SetRate(r.lastRate)
		case timing.Manual:
			r.lastRate = r.limiter.Rate()
			r.limiter.SetMode(timing.Auto)
		}
		slog.Info("limiter mode changed", "mode", r.limiter.Mode().String())
	case backend.ActionRateUp:
		r.limiter.SetRate(r.limiter.Rate() + rateStep)
	case backend.ActionRateDown:
		r.limiter.SetRate(r.limiter.Rate() - rateStep)
	}
}

func (r *Runner) logStats() {
	snap := r.snapshot()
	slog.Info("pacing stats",
		"frame", snap.Frame,
		"fps", snap.FPS,
		"frametime", snap.Frametime,
		"target", snap.Target,
		"margin", snap.Margin,
		"oversleep", snap.Oversleep,
		"mode", snap.Mode)
}

// simulateWork stands in for render work by burning CPU until the
// duration has elapsed. Spinning rather than sleeping keeps the load
// shape closer to a real render thread.
func simulateWork(d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}
