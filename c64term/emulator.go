// Package c64term drives an emulated C64 at 30 Hz, presenting each frame on
// a backend and feeding keyboard input back to the machine.
package c64term

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/valerio/go-c64term/c64term/backend"
	"github.com/valerio/go-c64term/c64term/input"
	"github.com/valerio/go-c64term/c64term/input/event"
	"github.com/valerio/go-c64term/c64term/machine"
	"github.com/valerio/go-c64term/c64term/timing"
	"github.com/valerio/go-c64term/c64term/video"
)

// Options configures an Emulator.
type Options struct {
	Machine machine.Machine
	Frame   *video.FrameBuffer
	Backend backend.Backend
	Limiter timing.Limiter // nil disables pacing

	// ProgramPath is loaded after LoadFrame frames when not empty.
	ProgramPath string
	LoadFrame   int

	// Quantum is the emulated time per frame in microseconds, zero selects
	// timing.FrameMicroseconds.
	Quantum int64
}

// Emulator is the presentation loop: emulate a quantum, present, dispatch
// input, pace.
type Emulator struct {
	machine machine.Machine
	frame   *video.FrameBuffer
	backend backend.Backend
	limiter timing.Limiter

	programPath string
	loadFrame   int
	quantum     int64

	frames  int
	loaded  bool
	loadErr error
}

// New creates an emulator from opts. Machine, Frame and Backend are
// required.
func New(opts Options) (*Emulator, error) {
	if opts.Machine == nil || opts.Frame == nil || opts.Backend == nil {
		return nil, errors.New("emulator needs a machine, a frame buffer and a backend")
	}

	if w, h := opts.Machine.Screen(); w != opts.Frame.Width() || h != opts.Frame.Height() {
		return nil, fmt.Errorf("machine screen %dx%d does not match frame buffer %dx%d",
			w, h, opts.Frame.Width(), opts.Frame.Height())
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = timing.NewNoOpLimiter()
	}
	quantum := opts.Quantum
	if quantum <= 0 {
		quantum = timing.FrameMicroseconds
	}

	return &Emulator{
		machine:     opts.Machine,
		frame:       opts.Frame,
		backend:     opts.Backend,
		limiter:     limiter,
		programPath: opts.ProgramPath,
		loadFrame:   opts.LoadFrame,
		quantum:     quantum,
	}, nil
}

// Frames returns the number of frames presented.
func (e *Emulator) Frames() int {
	return e.frames
}

// ProgramLoaded reports whether the program was injected, and the error of
// the attempt if it failed.
func (e *Emulator) ProgramLoaded() (bool, error) {
	return e.loaded && e.loadErr == nil, e.loadErr
}

// Run loops until a quit event arrives or ctx is cancelled. Both are a clean
// shutdown and return nil; only backend failures are returned.
func (e *Emulator) Run(ctx context.Context) error {
	e.limiter.Reset()

	for {
		if ctx.Err() != nil {
			slog.Info("Shutdown requested", "frames", e.frames)
			return nil
		}

		e.limiter.Advance()
		e.machine.Run(e.quantum)

		events, err := e.backend.Update(e.frame)
		if err != nil {
			return fmt.Errorf("backend update failed at frame %d: %w", e.frames, err)
		}
		e.frames++

		quit := e.dispatch(events)

		if !e.loaded && e.programPath != "" && e.frames >= e.loadFrame {
			e.loadProgram()
		}

		if quit {
			slog.Info("Quit requested", "frames", e.frames)
			return nil
		}

		e.limiter.WaitForNextFrame()
	}
}

// dispatch forwards key events to the machine and reports a quit request.
// Events after a quit are discarded.
func (e *Emulator) dispatch(events []input.Event) bool {
	for _, ev := range events {
		switch ev.Type {
		case event.Press:
			e.machine.KeyDown(ev.Code)
		case event.Release:
			e.machine.KeyUp(ev.Code)
		case event.Quit:
			return true
		}
	}
	return false
}

// loadProgram is attempted once. The outcome is logged and shown on the
// backend when it can display text; failures keep the loop running.
func (e *Emulator) loadProgram() {
	e.loaded = true

	image, err := machine.ReadProgramFile(e.programPath)
	if err == nil {
		if err = e.machine.LoadProgram(image); err != nil {
			err = fmt.Errorf("failed to load program %s: %w", e.programPath, err)
		}
	}
	if err != nil {
		e.loadErr = err
		slog.Error("Program load failed", "frame", e.frames, "error", err)
		e.notify("Error: " + err.Error())
		return
	}

	slog.Info("Program injected", "path", e.programPath, "frame", e.frames, "bytes", len(image))
	e.notify(fmt.Sprintf("Loaded program %s (%d bytes)", e.programPath, len(image)))
	if prg, err := machine.ParseProgram(image); err == nil {
		e.notify(fmt.Sprintf("Run the program with SYS %d", prg.LoadAddress))
	}
}

func (e *Emulator) notify(message string) {
	if n, ok := e.backend.(backend.Notifier); ok {
		n.Notify(message)
	}
}
