package backend

import (
	"io"

	"github.com/valerio/go-c64term/c64term/input"
	"github.com/valerio/go-c64term/c64term/kitty"
	"github.com/valerio/go-c64term/c64term/video"
)

// Backend represents a presentation platform (frames out, keys in).
// Backends are responsible for:
// - Presenting frames to their specific output (terminal, PNG files)
// - Translating platform input into key pulses and quit requests
type Backend interface {
	// Init configures the backend with the provided configuration.
	// This is a required step before calling Update.
	Init(config BackendConfig) error

	// Update presents the frame and returns the input events gathered since
	// the previous call. It never blocks waiting for input.
	Update(frame *video.FrameBuffer) ([]input.Event, error)

	// Cleanup resources when shutting down
	Cleanup() error
}

// Notifier is implemented by backends that can show a line of text to the
// user while running.
type Notifier interface {
	Notify(message string)
}

// BackendConfig holds configuration for backends
type BackendConfig struct {
	Title  string
	Width  int
	Height int

	Kitty   kitty.Config   // Graphics transport settings, terminal only
	Decoder *input.Decoder // Keyboard translation, terminal only

	// LogOutput receives log records for backends that install their own
	// handler. Nil selects stderr.
	LogOutput io.Writer
}
