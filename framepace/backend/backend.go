package backend

import "github.com/valerio/go-framepace/framepace/stats"

// Action is a request from a backend to the runner, translated from
// platform input (key presses, window close).
type Action int

const (
	// ActionNone means nothing happened this frame.
	ActionNone Action = iota
	// ActionQuit requests shutdown.
	ActionQuit
	// ActionCycleMode cycles the limiter through auto/unlimited/manual.
	ActionCycleMode
	// ActionRateUp raises the manual target rate.
	ActionRateUp
	// ActionRateDown lowers the manual target rate.
	ActionRateDown
)

// Config holds configuration shared by all backends.
type Config struct {
	Title string
	// MaxFrames stops the loop after this many frames; 0 means run
	// until the backend requests quit.
	MaxFrames int
}

// Backend represents a presentation target for the pacing demo. A
// backend renders whatever stands in for a frame (a stats overlay, a
// window with a latency marker) and reports input back to the runner.
//
// Update is the frame's render work: it runs between the pacer's
// BeginFrame and PrePresent checkpoints and only composes the frame.
// Present hands the composed frame to the display and runs after the
// pacing sleeps, so the sleeps delay presentation rather than trail it.
type Backend interface {
	// Init configures the backend. Required before Update.
	Init(config Config) error

	// Update composes the frame from the pacing snapshot and polls
	// platform events, returning any actions they translate to. It
	// must not present.
	Update(snap stats.Snapshot) ([]Action, error)

	// Present pushes the frame composed by Update to the output.
	Present() error

	// Cleanup releases platform resources.
	Cleanup() error
}

// RefreshRater is implemented by backends that can report the display's
// refresh rate, used to seed the manual target rate on request.
type RefreshRater interface {
	RefreshRate() (float64, bool)
}
