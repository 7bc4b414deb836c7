//go:build sdl2

package sdl2

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-framepace/framepace/backend"
	"github.com/valerio/go-framepace/framepace/stats"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	windowWidth  = 640
	windowHeight = 360
	markerSize   = 16
)

// Backend implements the Backend interface using SDL2 bindings. It
// draws a marker that tracks the mouse cursor, the classic way to make
// input-to-photon latency visible by eye.
// Note: building this requires SDL2 development libraries installed.
// Default builds skip this and use a stub, see build tags (sdl2).
type Backend struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	running  bool
}

// New creates a new SDL2 backend.
func New() *Backend {
	return &Backend{}
}

// Init initializes SDL2 and creates the window. Vsync is left off so
// the pacing layer, not the driver, controls the cadence.
func (s *Backend) Init(config backend.Config) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("failed to initialize SDL2: %v", err)
	}

	window, err := sdl.CreateWindow(
		config.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		windowWidth,
		windowHeight,
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("failed to create window: %v", err)
	}
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("failed to create renderer: %v", err)
	}
	s.renderer = renderer

	s.running = true

	if rate, ok := s.RefreshRate(); ok {
		slog.Info("SDL2 backend initialized", "display_refresh", rate)
	} else {
		slog.Info("SDL2 backend initialized")
	}

	return nil
}

// Update draws the latency marker and polls SDL events.
func (s *Backend) Update(snap stats.Snapshot) ([]backend.Action, error) {
	if !s.running {
		return nil, nil
	}

	var actions []backend.Action
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch ev := event.(type) {
		case *sdl.QuitEvent:
			actions = append(actions, backend.ActionQuit)
		case *sdl.KeyboardEvent:
			if ev.Type != sdl.KEYDOWN {
				continue
			}
			switch ev.Keysym.Sym {
			case sdl.K_ESCAPE, sdl.K_q:
				actions = append(actions, backend.ActionQuit)
			case sdl.K_SPACE:
				actions = append(actions, backend.ActionCycleMode)
			case sdl.K_EQUALS, sdl.K_PLUS:
				actions = append(actions, backend.ActionRateUp)
			case sdl.K_MINUS:
				actions = append(actions, backend.ActionRateDown)
			}
		}
	}

	s.renderer.SetDrawColor(0, 0, 0, 255)
	s.renderer.Clear()

	mouseX, mouseY, _ := sdl.GetMouseState()
	s.renderer.SetDrawColor(0, 255, 0, 255)
	s.renderer.FillRect(&sdl.Rect{
		X: mouseX - markerSize/2,
		Y: mouseY - markerSize/2,
		W: markerSize,
		H: markerSize,
	})

	return actions, nil
}

// Present flips the renderer's back buffer to the window.
func (s *Backend) Present() error {
	if !s.running {
		return nil
	}
	s.renderer.Present()
	return nil
}

// Cleanup destroys the window and shuts SDL down.
func (s *Backend) Cleanup() error {
	s.running = false
	if s.renderer != nil {
		s.renderer.Destroy()
	}
	if s.window != nil {
		s.window.Destroy()
	}
	sdl.Quit()
	return nil
}

// RefreshRate reports the refresh rate of the display the window is
// on, used to seed the manual target rate.
func (s *Backend) RefreshRate() (float64, bool) {
	if s.window == nil {
		return 0, false
	}
	index, err := s.window.GetDisplayIndex()
	if err != nil {
		return 0, false
	}
	mode, err := sdl.GetCurrentDisplayMode(index)
	if err != nil || mode.RefreshRate <= 0 {
		return 0, false
	}
	return float64(mode.RefreshRate), true
}
