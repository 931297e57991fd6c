package input

import (
	"log/slog"

	"github.com/valerio/go-c64term/c64term/input/event"
)

// Event is a keyboard event forwarded to the emulated machine.
type Event struct {
	Type event.Type
	Code int
}

// QuitEvent is the event emitted when the user asks to quit.
var QuitEvent = Event{Type: event.Quit}

// Decoder turns raw terminal bytes into key pulses.
type Decoder struct {
	// InvertCase swaps upper and lower case letters before forwarding them.
	// The C64 shows unshifted letters as upper case, so host lower case
	// must reach the matrix as upper case.
	InvertCase bool
}

// NewDecoder returns a decoder with case inversion enabled.
func NewDecoder() *Decoder {
	return &Decoder{InvertCase: true}
}

// Decode translates one chunk of bytes, as returned by a single poll, into
// events. A chunk holding only ESC is a quit request; ESC [ A-D are the
// cursor keys; every other byte is forwarded as a press immediately followed
// by a release.
func (d *Decoder) Decode(chunk []byte) []Event {
	if len(chunk) == 1 && chunk[0] == byteEscape {
		return []Event{QuitEvent}
	}

	var events []Event
	for i := 0; i < len(chunk); i++ {
		b := chunk[i]

		if b == byteEscape {
			if i+2 < len(chunk) && chunk[i+1] == '[' {
				if code := cursorKey(chunk[i+2]); code != 0 {
					events = append(events, pulse(code)...)
				} else {
					slog.Debug("Escape sequence not handled", "sequence", string(chunk[i+1:i+3]))
				}
				i += 2
				continue
			}
			slog.Debug("Escape sequence not handled", "bytes", chunk[i:])
			break
		}

		if code := d.keyCode(b); code != 0 {
			events = append(events, pulse(code)...)
		}
	}
	return events
}

func (d *Decoder) keyCode(b byte) int {
	switch {
	case b == byteDelete || b == byteBackspace:
		return KeyDel
	case d.InvertCase && b >= 'a' && b <= 'z':
		return int(b - 'a' + 'A')
	case d.InvertCase && b >= 'A' && b <= 'Z':
		return int(b - 'A' + 'a')
	default:
		return int(b)
	}
}

func cursorKey(b byte) int {
	switch b {
	case 'A':
		return KeyCsrUp
	case 'B':
		return KeyCsrDown
	case 'C':
		return KeyCsrRight
	case 'D':
		return KeyCsrLeft
	default:
		return 0
	}
}

func pulse(code int) []Event {
	return []Event{
		{Type: event.Press, Code: code},
		{Type: event.Release, Code: code},
	}
}
