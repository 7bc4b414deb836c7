package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli"
	"github.com/valerio/go-framepace/framepace"
	"github.com/valerio/go-framepace/framepace/backend"
	"github.com/valerio/go-framepace/framepace/backend/headless"
	"github.com/valerio/go-framepace/framepace/backend/sdl2"
	"github.com/valerio/go-framepace/framepace/backend/terminal"
	"github.com/valerio/go-framepace/framepace/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "framepace"
	app.Description = "Frame pacing demo: paces a render loop to a target rate with two-phase precision sleeps"
	app.Usage = "framepace [options]"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "backend",
			Usage: "Presentation backend: terminal, sdl2 or headless",
			Value: "terminal",
		},
		cli.StringFlag{
			Name:  "mode",
			Usage: "Limiter mode: auto, manual or unlimited",
			Value: "auto",
		},
		cli.Float64Flag{
			Name:  "fps",
			Usage: "Manual target rate in frames per second (0 = display refresh rate, implies --mode manual)",
		},
		cli.DurationFlag{
			Name:  "work",
			Usage: "Simulated render work per frame",
			Value: 4 * time.Millisecond,
		},
		cli.DurationFlag{
			Name:  "margin",
			Usage: "Starting safety margin for the estimate sleep (0 = default)",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Stop after N frames (0 = run until quit, required for headless)",
		},
		cli.DurationFlag{
			Name:  "stats-interval",
			Usage: "How often to log pacing stats (0 = only at exit)",
			Value: 5 * time.Second,
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("error running framepace", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("debug") {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	mode, err := parseMode(c.String("mode"))
	if err != nil {
		return err
	}
	if c.IsSet("fps") {
		mode = timing.Manual
	}

	var b backend.Backend
	switch name := c.String("backend"); name {
	case "terminal":
		b = terminal.New()
	case "sdl2":
		b = sdl2.New()
	case "headless":
		if c.Int("frames") <= 0 {
			return fmt.Errorf("headless backend requires --frames with a positive value")
		}
		b = headless.New()
	default:
		return fmt.Errorf("unknown backend: %s", name)
	}

	runner := framepace.NewRunner(b, framepace.Config{
		Title:         "framepace",
		Mode:          mode,
		Rate:          c.Float64("fps"),
		Work:          c.Duration("work"),
		Margin:        c.Duration("margin"),
		MaxFrames:     c.Int("frames"),
		StatsInterval: c.Duration("stats-interval"),
	})

	return runner.Run()
}

func parseMode(name string) (timing.Mode, error) {
	switch name {
	case "auto":
		return timing.Auto, nil
	case "manual":
		return timing.Manual, nil
	case "unlimited":
		return timing.Unlimited, nil
	}
	return timing.Unlimited, fmt.Errorf("unknown limiter mode: %s", name)
}
