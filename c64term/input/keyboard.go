package input

import (
	"io"
	"log/slog"
)

const (
	// readSize bounds the bytes read from the terminal at once.
	readSize = 8
	// pendingChunks bounds the chunks waiting for the next poll.
	pendingChunks = 64
)

// Keyboard reads a terminal on its own goroutine and hands the bytes to the
// main loop through Poll, which never blocks.
type Keyboard struct {
	chunks  chan []byte
	decoder *Decoder
	done    chan struct{}
}

// NewKeyboard starts reading r. The goroutine exits when r returns an error,
// which for a tty happens when it is stopped or closed.
func NewKeyboard(r io.Reader, decoder *Decoder) *Keyboard {
	if decoder == nil {
		decoder = NewDecoder()
	}

	k := &Keyboard{
		chunks:  make(chan []byte, pendingChunks),
		decoder: decoder,
		done:    make(chan struct{}),
	}
	go k.read(r)
	return k
}

func (k *Keyboard) read(r io.Reader) {
	defer close(k.done)

	buf := make([]byte, readSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case k.chunks <- chunk:
			default:
				slog.Debug("Keyboard input dropped", "bytes", n)
			}
		}
		if err != nil {
			if err != io.EOF {
				slog.Debug("Keyboard reader stopped", "error", err)
			}
			return
		}
	}
}

// Poll returns the events decoded from every chunk read since the last call.
func (k *Keyboard) Poll() []Event {
	var events []Event
	for {
		select {
		case chunk := <-k.chunks:
			events = append(events, k.decoder.Decode(chunk)...)
		default:
			return events
		}
	}
}

// Done is closed once the reader goroutine has exited.
func (k *Keyboard) Done() <-chan struct{} {
	return k.done
}
