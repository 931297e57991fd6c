package c64term

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-c64term/c64term/backend"
	"github.com/valerio/go-c64term/c64term/backend/terminal"
	"github.com/valerio/go-c64term/c64term/input"
	"github.com/valerio/go-c64term/c64term/input/event"
	"github.com/valerio/go-c64term/c64term/logbuf"
	"github.com/valerio/go-c64term/c64term/machine"
	"github.com/valerio/go-c64term/c64term/video"
)

type fakeMachine struct {
	calls    []string
	runs     []int64
	programs [][]byte
	loadErr  error
}

func (m *fakeMachine) Run(usec int64) {
	m.runs = append(m.runs, usec)
	m.calls = append(m.calls, "run")
}

func (m *fakeMachine) LoadProgram(image []byte) error {
	m.programs = append(m.programs, image)
	m.calls = append(m.calls, "load")
	return m.loadErr
}

func (m *fakeMachine) KeyDown(code int) { m.calls = append(m.calls, "down:"+string(rune(code))) }
func (m *fakeMachine) KeyUp(code int)   { m.calls = append(m.calls, "up:"+string(rune(code))) }

func (m *fakeMachine) Screen() (int, int) { return 4, 2 }

// scriptedBackend returns the events scheduled for each frame and quits
// after the last one.
type scriptedBackend struct {
	script map[int][]input.Event
	limit  int
	update int
	err    error
}

func (b *scriptedBackend) Init(backend.BackendConfig) error { return nil }

func (b *scriptedBackend) Update(*video.FrameBuffer) ([]input.Event, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.update++
	if b.update >= b.limit {
		return append(b.script[b.update], input.QuitEvent), nil
	}
	return b.script[b.update], nil
}

func (b *scriptedBackend) Cleanup() error { return nil }

type countingLimiter struct {
	advances, waits, resets int
}

func (l *countingLimiter) Advance()          { l.advances++ }
func (l *countingLimiter) WaitForNextFrame() { l.waits++ }
func (l *countingLimiter) Reset()            { l.resets++ }

func newEmulator(t *testing.T, m *fakeMachine, b backend.Backend, opts Options) *Emulator {
	t.Helper()
	opts.Machine = m
	opts.Backend = b
	opts.Frame = video.NewFrameBufferSize(4, 2)
	e, err := New(opts)
	require.NoError(t, err)
	return e
}

func TestEmulator_RunsQuantaUntilQuit(t *testing.T) {
	m := &fakeMachine{}
	lim := &countingLimiter{}
	e := newEmulator(t, m, &scriptedBackend{limit: 5}, Options{Limiter: lim})

	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, 5, e.Frames())
	assert.Equal(t, []int64{33333, 33333, 33333, 33333, 33333}, m.runs)
	assert.Equal(t, 1, lim.resets)
	assert.Equal(t, 5, lim.advances)
	assert.Equal(t, 4, lim.waits, "no sleep after the quit frame")
}

func TestEmulator_DispatchesKeyPulses(t *testing.T) {
	m := &fakeMachine{}
	b := &scriptedBackend{limit: 2, script: map[int][]input.Event{
		1: {{Type: event.Press, Code: 'A'}, {Type: event.Release, Code: 'A'}},
		2: {{Type: event.Press, Code: 'B'}},
	}}
	e := newEmulator(t, m, b, Options{})

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, []string{"run", "down:A", "up:A", "run", "down:B"}, m.calls)
}

func TestEmulator_EventsAfterQuitAreDiscarded(t *testing.T) {
	m := &fakeMachine{}
	b := &scriptedBackend{limit: 10, script: map[int][]input.Event{
		1: {input.QuitEvent, {Type: event.Press, Code: 'X'}},
	}}
	e := newEmulator(t, m, b, Options{})

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 1, e.Frames())
	assert.Equal(t, []string{"run"}, m.calls)
}

func TestEmulator_LoadsProgramAfterLoadFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.prg")
	require.NoError(t, os.WriteFile(path, []byte{0x01, 0x08, 0x60}, 0o644))

	m := &fakeMachine{}
	e := newEmulator(t, m, &scriptedBackend{limit: 100}, Options{ProgramPath: path, LoadFrame: 90})

	require.NoError(t, e.Run(context.Background()))
	require.Len(t, m.programs, 1, "loaded exactly once")
	assert.Equal(t, []byte{0x01, 0x08, 0x60}, m.programs[0])

	loadAt := -1
	runs := 0
	for _, c := range m.calls {
		if c == "run" {
			runs++
		}
		if c == "load" {
			loadAt = runs
		}
	}
	assert.Equal(t, 90, loadAt, "injected after the 90th frame")

	ok, err := e.ProgramLoaded()
	assert.True(t, ok)
	assert.NoError(t, err)
}

func TestEmulator_ProgramFailuresKeepRunning(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		m := &fakeMachine{}
		e := newEmulator(t, m, &scriptedBackend{limit: 5}, Options{
			ProgramPath: filepath.Join(t.TempDir(), "missing.prg"),
			LoadFrame:   2,
		})

		require.NoError(t, e.Run(context.Background()))
		assert.Equal(t, 5, e.Frames())
		assert.Empty(t, m.programs)

		ok, err := e.ProgramLoaded()
		assert.False(t, ok)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("rejected image", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "short.prg")
		require.NoError(t, os.WriteFile(path, []byte{0x01}, 0o644))

		m := &fakeMachine{loadErr: machine.ErrShortProgram}
		e := newEmulator(t, m, &scriptedBackend{limit: 5}, Options{ProgramPath: path, LoadFrame: 1})

		require.NoError(t, e.Run(context.Background()))
		assert.Equal(t, 5, e.Frames())

		_, err := e.ProgramLoaded()
		assert.ErrorIs(t, err, machine.ErrShortProgram)
	})
}

func TestEmulator_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &fakeMachine{}
	e := newEmulator(t, m, &scriptedBackend{limit: 100}, Options{})
	require.NoError(t, e.Run(ctx))
	assert.Zero(t, e.Frames())
}

func TestEmulator_BackendErrorIsReturned(t *testing.T) {
	boom := errors.New("boom")
	e := newEmulator(t, &fakeMachine{}, &scriptedBackend{err: boom}, Options{})
	assert.ErrorIs(t, e.Run(context.Background()), boom)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{
		Machine: &fakeMachine{},
		Backend: &scriptedBackend{},
		Frame:   video.NewFrameBuffer(),
	})
	assert.Error(t, err, "screen size mismatch")
}

func TestEmulator_WithPatternMachine(t *testing.T) {
	frame := video.NewFrameBuffer()
	m := machine.NewPattern(frame, nil)

	e, err := New(Options{Machine: m, Frame: frame, Backend: &scriptedBackend{limit: 3}})
	require.NoError(t, err)
	require.NoError(t, e.Run(context.Background()))

	r, g, b := frame.GetPixel(0, 0)
	assert.NotEqual(t, [3]uint8{0, 0, 0}, [3]uint8{r, g, b}, "border drawn")
}

type notifyingBackend struct {
	scriptedBackend
	messages []string
}

func (b *notifyingBackend) Notify(message string) {
	b.messages = append(b.messages, message)
}

func TestEmulator_ReportsProgramLoad(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "demo.prg")
		require.NoError(t, os.WriteFile(path, []byte{0x01, 0x08, 0x60}, 0o644))

		b := &notifyingBackend{scriptedBackend: scriptedBackend{limit: 3}}
		e := newEmulator(t, &fakeMachine{}, b, Options{ProgramPath: path, LoadFrame: 2})
		require.NoError(t, e.Run(context.Background()))

		require.Len(t, b.messages, 2)
		assert.Contains(t, b.messages[0], "demo.prg (3 bytes)")
		assert.Equal(t, "Run the program with SYS 2049", b.messages[1])
	})

	t.Run("failure", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.prg")

		b := &notifyingBackend{scriptedBackend: scriptedBackend{limit: 3}}
		e := newEmulator(t, &fakeMachine{}, b, Options{ProgramPath: path, LoadFrame: 2})
		require.NoError(t, e.Run(context.Background()))

		require.Len(t, b.messages, 1)
		assert.True(t, strings.HasPrefix(b.messages[0], "Error: "))
		assert.Equal(t, 1, strings.Count(b.messages[0], path), "path reported once")

		_, err := e.ProgramLoaded()
		assert.Equal(t, 1, strings.Count(err.Error(), path))
	})

	t.Run("rejected image names the path once", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "short.prg")
		require.NoError(t, os.WriteFile(path, []byte{0x01}, 0o644))

		b := &notifyingBackend{scriptedBackend: scriptedBackend{limit: 3}}
		e := newEmulator(t, &fakeMachine{loadErr: machine.ErrShortProgram}, b, Options{ProgramPath: path, LoadFrame: 1})
		require.NoError(t, e.Run(context.Background()))

		require.Len(t, b.messages, 1)
		assert.Equal(t, 1, strings.Count(b.messages[0], path))
	})
}

// consoleTerminal records everything the terminal backend writes.
type consoleTerminal struct {
	text strings.Builder
}

func (c *consoleTerminal) Write(p []byte) (int, error) {
	return c.text.Write(p)
}

func (c *consoleTerminal) Poll() []input.Event { return nil }
func (c *consoleTerminal) Close() error        { return nil }

func TestEmulator_ProgramLoadReachesTerminal(t *testing.T) {
	// Logs are buffered while the terminal shows graphics, so the load
	// outcome must be written to the terminal itself.
	prev := slog.Default()
	slog.SetDefault(slog.New(logbuf.NewHandler(logbuf.New(16), slog.LevelInfo)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	run := func(t *testing.T, path string) string {
		term := &consoleTerminal{}
		be := terminal.NewWithOpener(func(*input.Decoder) (terminal.Terminal, error) { return term, nil })

		frame := video.NewFrameBuffer()
		require.NoError(t, be.Init(backend.BackendConfig{Width: frame.Width(), Height: frame.Height()}))

		e, err := New(Options{
			Machine:     machine.NewPattern(frame, nil),
			Frame:       frame,
			Backend:     &quitAfter{Backend: be, limit: 3},
			ProgramPath: path,
			LoadFrame:   2,
		})
		require.NoError(t, err)
		require.NoError(t, e.Run(context.Background()))
		require.NoError(t, be.Cleanup())
		return term.text.String()
	}

	t.Run("loaded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "demo.prg")
		require.NoError(t, os.WriteFile(path, []byte{0x00, 0xC0, 0x60}, 0o644))
		assert.Contains(t, run(t, path), "Run the program with SYS 49152\r\n")
	})

	t.Run("missing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.prg")
		assert.Contains(t, run(t, path), "Error: failed to read program: open "+path)
	})
}

// quitAfter wraps a backend and requests quit after limit frames while
// still exposing its notifications.
type quitAfter struct {
	*terminal.Backend
	limit  int
	frames int
}

func (q *quitAfter) Update(frame *video.FrameBuffer) ([]input.Event, error) {
	events, err := q.Backend.Update(frame)
	q.frames++
	if q.frames >= q.limit {
		events = append(events, input.QuitEvent)
	}
	return events, err
}
