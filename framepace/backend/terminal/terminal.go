package terminal

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/valerio/go-framepace/framepace/backend"
	"github.com/valerio/go-framepace/framepace/backend/terminal/render"
	"github.com/valerio/go-framepace/framepace/stats"
)

const (
	// historyLen is how many frametimes the bar graph keeps.
	historyLen = 64
	// barScale is the frametime that fills a whole bar column.
	barScale  = 40 * time.Millisecond
	barHeight = 8
	// logLines is how many captured log lines the overlay shows.
	logLines = 5
)

// Backend implements the Backend interface with a tcell stats overlay:
// live pacing numbers plus a frametime bar graph. Keys: q or ESC quits,
// space cycles the limiter mode, +/- adjust the manual rate.
type Backend struct {
	screen     tcell.Screen
	running    bool
	history    []time.Duration
	logBuffer  *render.LogBuffer
	prevLogger *slog.Logger
}

// New creates a terminal backend.
func New() *Backend {
	return &Backend{}
}

// Init initializes the tcell screen.
func (t *Backend) Init(config backend.Config) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}
	return t.initScreen(screen)
}

func (t *Backend) initScreen(screen tcell.Screen) error {
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}

	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()

	// Redirect slog into the overlay while tcell owns the terminal;
	// writing to stderr now would garble the screen. The previous
	// logger comes back in Cleanup.
	t.logBuffer = render.NewLogBuffer(100)
	t.prevLogger = slog.Default()
	slog.SetDefault(slog.New(render.NewHandler(t.logBuffer, slog.LevelInfo)))

	t.screen = screen
	t.running = true
	t.history = make([]time.Duration, 0, historyLen)
	return nil
}

// Update draws the pacing overlay and polls keys.
func (t *Backend) Update(snap stats.Snapshot) ([]backend.Action, error) {
	var actions []backend.Action

	for t.screen.HasPendingEvent() {
		ev := t.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyEscape || ev.Rune() == 'q':
				actions = append(actions, backend.ActionQuit)
			case ev.Rune() == ' ':
				actions = append(actions, backend.ActionCycleMode)
			case ev.Rune() == '+' || ev.Rune() == '=':
				actions = append(actions, backend.ActionRateUp)
			case ev.Rune() == '-':
				actions = append(actions, backend.ActionRateDown)
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	if !t.running {
		return actions, nil
	}

	t.history = append(t.history, snap.Frametime)
	if len(t.history) > historyLen {
		t.history = t.history[1:]
	}

	t.screen.Clear()
	t.drawText(0, 0, tcell.StyleDefault.Bold(true), "framepace")
	t.drawText(0, 2, tcell.StyleDefault, fmt.Sprintf("mode:      %s", snap.Mode))
	t.drawText(0, 3, tcell.StyleDefault, fmt.Sprintf("fps:       %6.2f", snap.FPS))
	t.drawText(0, 4, tcell.StyleDefault, fmt.Sprintf("frametime: %8.3fms", millis(snap.Frametime)))
	t.drawText(0, 5, tcell.StyleDefault, fmt.Sprintf("target:    %8.3fms", millis(snap.Target)))
	t.drawText(0, 6, tcell.StyleDefault, fmt.Sprintf("margin:    %8.3fms", millis(snap.Margin)))
	t.drawText(0, 7, tcell.StyleDefault, fmt.Sprintf("oversleep: %8.3fms", millis(snap.Oversleep)))
	t.drawBars(0, 9)
	t.drawText(0, 10+barHeight, tcell.StyleDefault.Dim(true),
		"[space] cycle mode  [+/-] rate  [q] quit")

	logStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for i, entry := range t.logBuffer.Recent(logLines) {
		t.drawText(0, 12+barHeight+i, logStyle, render.FormatLogEntry(entry))
	}

	return actions, nil
}

// Present pushes the composed overlay to the terminal.
func (t *Backend) Present() error {
	if !t.running {
		return nil
	}
	t.screen.Show()
	return nil
}

// Cleanup restores the terminal and the default logger, so anything
// logged after shutdown reaches stderr again.
func (t *Backend) Cleanup() error {
	if t.screen != nil {
		t.screen.Fini()
	}
	if t.prevLogger != nil {
		slog.SetDefault(t.prevLogger)
		t.prevLogger = nil
	}
	t.running = false
	return nil
}

func (t *Backend) drawText(x, y int, style tcell.Style, text string) {
	for i, ch := range text {
		t.screen.SetContent(x+i, y, ch, nil, style)
	}
}

// drawBars renders the recent frametimes as vertical bars, tallest on
// a 40ms frame.
func (t *Backend) drawBars(x, y int) {
	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	for i, ft := range t.history {
		h := int(int64(barHeight) * int64(ft) / int64(barScale))
		if h > barHeight {
			h = barHeight
		}
		for row := 0; row < h; row++ {
			t.screen.SetContent(x+i, y+barHeight-1-row, '█', nil, style)
		}
	}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
