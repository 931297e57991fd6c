//go:build !windows

package input

import (
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"
)

// TTY owns the controlling terminal in raw mode. Output written through it
// goes straight to the terminal, bypassing any screen abstraction, which is
// what the graphics protocol needs.
type TTY struct {
	tty      tcell.Tty
	keyboard *Keyboard
}

// OpenTTY opens /dev/tty, switches it to raw mode and starts the keyboard
// reader.
func OpenTTY(decoder *Decoder) (*TTY, error) {
	tty, err := tcell.NewDevTty()
	if err != nil {
		return nil, fmt.Errorf("failed to open terminal: %w", err)
	}
	if err := tty.Start(); err != nil {
		_ = tty.Close()
		return nil, fmt.Errorf("failed to enter raw mode: %w", err)
	}

	if ws, err := tty.WindowSize(); err == nil {
		slog.Debug("Terminal size",
			"cols", ws.Width, "rows", ws.Height,
			"pixel_width", ws.PixelWidth, "pixel_height", ws.PixelHeight)
	}

	return &TTY{
		tty:      tty,
		keyboard: NewKeyboard(tty, decoder),
	}, nil
}

// Write sends raw bytes to the terminal.
func (t *TTY) Write(p []byte) (int, error) {
	return t.tty.Write(p)
}

// Poll returns pending keyboard events without blocking.
func (t *TTY) Poll() []Event {
	return t.keyboard.Poll()
}

// Close restores the terminal mode and releases the device.
func (t *TTY) Close() error {
	if err := t.tty.Stop(); err != nil {
		_ = t.tty.Close()
		return fmt.Errorf("failed to restore terminal: %w", err)
	}
	return t.tty.Close()
}
