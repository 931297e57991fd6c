package kitty

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
)

const (
	// DefaultChunkSize is the largest payload carried by one escape sequence.
	DefaultChunkSize = 4096

	apcStart = "\x1b_G"
	apcEnd   = "\x1b\\"
)

// Session is the display state that persists across frames.
type Session struct {
	ID      uint32
	Dialect Dialect
	// Frame counts the frames transmitted so far. Frame 0 creates the image.
	Frame uint64
}

// NewSession creates a session with a random, non-zero image identifier.
func NewSession(dialect Dialect) Session {
	return Session{
		ID:      rand.Uint32N(math.MaxInt32) + 1,
		Dialect: dialect,
	}
}

// Config holds the transport configuration.
type Config struct {
	Dialect   Dialect
	ChunkSize int    // 0 selects DefaultChunkSize
	ImageID   uint32 // 0 selects a random identifier
}

// Transport writes frames to a terminal using the Kitty graphics protocol.
type Transport struct {
	out       io.Writer
	width     int
	height    int
	chunkSize int
	session   Session
	dropped   int
}

// NewTransport creates a transport for width x height RGB24 frames.
func NewTransport(out io.Writer, width, height int, config Config) *Transport {
	session := NewSession(config.Dialect)
	if config.ImageID != 0 {
		session.ID = config.ImageID
	}

	chunkSize := config.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return &Transport{
		out:       out,
		width:     width,
		height:    height,
		chunkSize: chunkSize,
		session:   session,
	}
}

// Session returns a copy of the current session state.
func (t *Transport) Session() Session {
	return t.session
}

// Dropped returns the number of frames that could not be transmitted.
func (t *Transport) Dropped() int {
	return t.dropped
}

// Present encodes an RGB24 bitmap and transmits it as one frame. On error
// the frame is dropped and the session does not advance, so the next call
// retries the same transition.
func (t *Transport) Present(bitmap []byte) error {
	if want := t.width * t.height * 3; len(bitmap) != want {
		t.dropped++
		return fmt.Errorf("bitmap is %d bytes, expected %d", len(bitmap), want)
	}

	frame := t.buildFrame(Encode(bitmap))
	if _, err := t.out.Write(frame); err != nil {
		t.dropped++
		return fmt.Errorf("failed to write frame %d: %w", t.session.Frame, err)
	}
	if f, ok := t.out.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			t.dropped++
			return fmt.Errorf("failed to flush frame %d: %w", t.session.Frame, err)
		}
	}

	if t.session.Frame == 0 {
		slog.Debug("Image created", "id", t.session.ID, "dialect", t.session.Dialect,
			"width", t.width, "height", t.height)
	}
	t.session.Frame++

	return nil
}

// buildFrame renders every block of the current frame into one buffer.
func (t *Transport) buildFrame(payload []byte) []byte {
	chunks := Chunks(payload, t.chunkSize)

	var b bytes.Buffer
	b.Grow(len(payload) + len(chunks)*(len(apcStart)+len(apcEnd)+8) + 128)

	for i, chunk := range chunks {
		more := i < len(chunks)-1

		b.WriteString(apcStart)
		if i == 0 {
			b.WriteString(t.session.Dialect.firstControl(&t.session, t.width, t.height, more))
		} else {
			b.WriteString(continuationControl(more))
		}
		b.WriteByte(';')
		b.Write(chunk)
		b.WriteString(apcEnd)
	}

	if trailer := t.session.Dialect.trailer(&t.session); trailer != "" {
		b.WriteString(apcStart)
		b.WriteString(trailer)
		b.WriteString(apcEnd)
	}

	// Raw mode disables output post-processing, hence the explicit \r.
	if t.session.Frame == 0 {
		b.WriteString("\r\n")
	}

	return b.Bytes()
}
