package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli"

	"github.com/valerio/go-c64term/c64term"
	"github.com/valerio/go-c64term/c64term/audio"
	"github.com/valerio/go-c64term/c64term/backend"
	"github.com/valerio/go-c64term/c64term/backend/headless"
	"github.com/valerio/go-c64term/c64term/backend/terminal"
	"github.com/valerio/go-c64term/c64term/config"
	"github.com/valerio/go-c64term/c64term/input"
	"github.com/valerio/go-c64term/c64term/logbuf"
	"github.com/valerio/go-c64term/c64term/machine"
	"github.com/valerio/go-c64term/c64term/timing"
	"github.com/valerio/go-c64term/c64term/video"
)

// logBufferSize is how many records are kept while the terminal is in use.
const logBufferSize = 500

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "c64term"
	app.Description = "A C64 emulator front end drawing to Kitty graphics terminals"
	app.Usage = "c64term [options] [program.prg]"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "mode",
			Usage: "Frame update mode: direct or animation",
			Value: "direct",
		},
		cli.StringFlag{
			Name:  "audio",
			Usage: "Audio backend: " + strings.Join(audio.Backends, ", "),
			Value: audio.BackendOto,
		},
		cli.StringFlag{
			Name:  "wav-out",
			Usage: "Output file of the wav audio backend",
			Value: audio.DefaultOptions().WAVPath,
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "Path to a YAML configuration file",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the emulator without a terminal",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode",
			Value: 300,
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory)",
		},
		cli.IntFlag{
			Name:  "snapshot-scale",
			Usage: "Integer upscaling of saved snapshots",
			Value: 1,
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Log at debug level",
		},
	}
	app.Action = runEmulator
	return app
}

func runEmulator(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	programPath := c.Args().First()

	if !cfg.Headless.Enabled {
		restore := bufferLogs(cfg.Debug)
		defer restore()
	}

	frame := video.NewFrameBuffer()

	sink, err := audio.New(cfg.AudioOptions())
	if err != nil {
		return err
	}
	if err := sink.Init(); err != nil {
		return fmt.Errorf("audio initialization failed: %w", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			slog.Error("Failed to close audio", "error", err)
		}
	}()

	c64 := machine.NewPattern(frame, sink)

	be, limiter, err := newBackend(cfg, programPath)
	if err != nil {
		return err
	}

	kittyCfg, err := cfg.KittyConfig()
	if err != nil {
		return err
	}
	if err := be.Init(backend.BackendConfig{
		Title:   appName(c),
		Width:   frame.Width(),
		Height:  frame.Height(),
		Kitty:   kittyCfg,
		Decoder: &input.Decoder{InvertCase: cfg.Input.InvertCase},
	}); err != nil {
		return err
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			slog.Error("Failed to restore terminal", "error", err)
		}
	}()

	emu, err := c64term.New(c64term.Options{
		Machine:     c64,
		Frame:       frame,
		Backend:     be,
		Limiter:     limiter,
		ProgramPath: programPath,
		LoadFrame:   cfg.LoadFrame,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	return emu.Run(ctx)
}

// loadConfig layers the command line flags over the configuration file.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}

	if c.IsSet("mode") {
		cfg.Display.Mode = c.String("mode")
	}
	if c.IsSet("audio") {
		cfg.Audio.Backend = c.String("audio")
	}
	if c.IsSet("wav-out") {
		cfg.Audio.WAVPath = c.String("wav-out")
	}
	if c.Bool("headless") {
		cfg.Headless.Enabled = true
	}
	if c.IsSet("frames") {
		cfg.Headless.Frames = c.Int("frames")
	}
	if c.IsSet("snapshot-interval") {
		cfg.Headless.SnapshotInterval = c.Int("snapshot-interval")
	}
	if c.IsSet("snapshot-dir") {
		cfg.Headless.SnapshotDir = c.String("snapshot-dir")
	}
	if c.IsSet("snapshot-scale") {
		cfg.Headless.SnapshotScale = c.Int("snapshot-scale")
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}

	// Headless runs have no listener; sound devices are only opened on
	// request.
	if cfg.Headless.Enabled && !c.IsSet("audio") &&
		(cfg.Audio.Backend == audio.BackendOto || cfg.Audio.Backend == audio.BackendSDL2) {
		cfg.Audio.Backend = audio.BackendOff
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newBackend(cfg config.Config, programPath string) (backend.Backend, timing.Limiter, error) {
	if !cfg.Headless.Enabled {
		return terminal.New(), timing.NewPacer(timing.FrameDuration(), nil), nil
	}

	h := cfg.Headless
	snapshots, err := headless.CreateSnapshotConfig(h.SnapshotInterval, h.SnapshotDir, h.SnapshotScale, programPath)
	if err != nil {
		return nil, nil, err
	}
	return headless.New(h.Frames, snapshots), timing.NewNoOpLimiter(), nil
}

// bufferLogs captures log records while the terminal shows graphics. The
// returned function replays them to stderr and restores the previous logger.
func bufferLogs(debug bool) func() {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	prev := slog.Default()
	buf := logbuf.New(logBufferSize)
	slog.SetDefault(slog.New(logbuf.NewHandler(buf, level)))

	return func() {
		slog.SetDefault(prev)
		if err := buf.Replay(os.Stderr); err != nil {
			slog.Error("Failed to replay logs", "error", err)
		}
	}
}

func appName(c *cli.Context) string {
	if c.App == nil {
		return "c64term"
	}
	return c.App.Name
}
