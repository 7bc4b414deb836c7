package headless

import (
	"log/slog"

	"github.com/valerio/go-framepace/framepace/backend"
	"github.com/valerio/go-framepace/framepace/stats"
)

// reportEvery throttles per-frame progress logging.
const reportEvery = 60

// Backend implements the Backend interface for batch runs and CI: no
// display, just periodic pacing reports over slog.
type Backend struct {
	config     backend.Config
	frameCount int
}

// New creates a headless backend.
func New() *Backend {
	return &Backend{}
}

// Init stores the configuration.
func (h *Backend) Init(config backend.Config) error {
	h.config = config
	slog.Info("running headless", "frames", config.MaxFrames)
	return nil
}

// Update logs pacing progress every reportEvery frames. There is no
// platform input, so it never returns actions; the runner's frame cap
// ends the loop.
func (h *Backend) Update(snap stats.Snapshot) ([]backend.Action, error) {
	h.frameCount++
	if h.frameCount%reportEvery == 0 {
		slog.Debug("headless progress",
			"frame", snap.Frame,
			"fps", snap.FPS,
			"frametime", snap.Frametime,
			"target", snap.Target,
			"margin", snap.Margin)
	}
	return nil, nil
}

// Present does nothing; there is no display to hand the frame to.
func (h *Backend) Present() error {
	return nil
}

// Cleanup does nothing for the headless backend.
func (h *Backend) Cleanup() error {
	return nil
}
