package terminal

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"github.com/valerio/go-c64term/c64term/backend"
	"github.com/valerio/go-c64term/c64term/input"
	"github.com/valerio/go-c64term/c64term/kitty"
	"github.com/valerio/go-c64term/c64term/video"
)

const (
	// writeBufferSize holds a whole 392x272 frame so it reaches the
	// terminal in a single write.
	writeBufferSize = 1 << 19

	bannerStart = "C64 Emulator started. Press 'ESC' to quit.\r\n"
	bannerStop  = "\r\nC64 Emulator terminated.\r\n"
)

// Terminal is the raw terminal the backend draws to and reads keys from.
type Terminal interface {
	io.Writer
	Poll() []input.Event
	Close() error
}

// Opener opens the terminal during Init.
type Opener func(decoder *input.Decoder) (Terminal, error)

// OpenTTY opens the controlling terminal.
func OpenTTY(decoder *input.Decoder) (Terminal, error) {
	tty, err := input.OpenTTY(decoder)
	if err != nil {
		return nil, err
	}
	return tty, nil
}

// Backend renders frames as Kitty graphics on a raw terminal.
type Backend struct {
	open      Opener
	term      Terminal
	out       *bufio.Writer
	transport *kitty.Transport
}

// New creates a terminal backend using the controlling terminal.
func New() *Backend {
	return NewWithOpener(OpenTTY)
}

// NewWithOpener creates a backend drawing to the terminal returned by open.
func NewWithOpener(open Opener) *Backend {
	return &Backend{open: open}
}

// Init opens the terminal, switches it to raw mode and sets up the graphics
// session.
func (t *Backend) Init(config backend.BackendConfig) error {
	term, err := t.open(config.Decoder)
	if err != nil {
		return err
	}

	width, height := config.Width, config.Height
	if width <= 0 || height <= 0 {
		width, height = video.FramebufferWidth, video.FramebufferHeight
	}

	t.term = term
	t.out = bufio.NewWriterSize(term, writeBufferSize)
	t.transport = kitty.NewTransport(t.out, width, height, config.Kitty)

	if _, err := io.WriteString(term, bannerStart); err != nil {
		_ = term.Close()
		return fmt.Errorf("failed to write to terminal: %w", err)
	}

	s := t.transport.Session()
	slog.Info("Terminal backend initialized", "title", config.Title,
		"dialect", s.Dialect, "image_id", s.ID, "width", width, "height", height)
	return nil
}

// Update transmits the frame and polls the keyboard. A frame that fails to
// transmit is dropped and logged; the session is retried on the next call.
func (t *Backend) Update(frame *video.FrameBuffer) ([]input.Event, error) {
	if err := t.transport.Present(frame.Bytes()); err != nil {
		t.out.Reset(t.term)
		slog.Error("Failed to present frame", "error", err, "dropped", t.transport.Dropped())
	}

	return t.term.Poll(), nil
}

// Notify writes a line of text to the terminal, below the image.
func (t *Backend) Notify(message string) {
	if t.term == nil {
		return
	}
	if _, err := io.WriteString(t.term, message+"\r\n"); err != nil {
		slog.Error("Failed to write to terminal", "error", err)
	}
}

// Session returns the graphics session state.
func (t *Backend) Session() kitty.Session {
	return t.transport.Session()
}

// Cleanup restores the terminal.
func (t *Backend) Cleanup() error {
	if t.term == nil {
		return nil
	}

	_, _ = io.WriteString(t.term, bannerStop)
	slog.Info("Terminal backend stopped",
		"frames", t.transport.Session().Frame, "dropped", t.transport.Dropped())

	err := t.term.Close()
	t.term = nil
	return err
}

var (
	_ backend.Backend  = (*Backend)(nil)
	_ backend.Notifier = (*Backend)(nil)
)
