package kitty

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type block struct {
	control string
	payload string
}

// parseBlocks splits terminal output into APC blocks plus whatever trailing
// text follows the last one.
func parseBlocks(t *testing.T, out string) ([]block, string) {
	t.Helper()

	var blocks []block
	for strings.HasPrefix(out, apcStart) {
		end := strings.Index(out, apcEnd)
		require.NotEqual(t, -1, end, "unterminated block")

		body := out[len(apcStart):end]
		control, payload, _ := strings.Cut(body, ";")
		blocks = append(blocks, block{control: control, payload: payload})
		out = out[end+len(apcEnd):]
	}
	return blocks, out
}

func bitmap(width, height int, seed byte) []byte {
	b := make([]byte, width*height*3)
	for i := range b {
		b[i] = byte(i) ^ seed
	}
	return b
}

func TestTransport_CreateFrame(t *testing.T) {
	for _, dialect := range []Dialect{DialectDirect, DialectAnimation} {
		t.Run(dialect.String(), func(t *testing.T) {
			var out bytes.Buffer
			tr := NewTransport(&out, 4, 2, Config{Dialect: dialect, ImageID: 42})

			require.NoError(t, tr.Present(bitmap(4, 2, 0)))

			blocks, rest := parseBlocks(t, out.String())
			require.Len(t, blocks, 1)
			assert.Equal(t, "a=T,i=42,f=24,s=4,v=2,q=2,c=30,r=10,m=0", blocks[0].control)
			assert.Equal(t, string(Encode(bitmap(4, 2, 0))), blocks[0].payload)
			assert.Equal(t, "\r\n", rest, "cursor moves below the image after the first frame")
			assert.Equal(t, uint64(1), tr.Session().Frame)
		})
	}
}

func TestTransport_ChunkedFrame(t *testing.T) {
	var out bytes.Buffer
	tr := NewTransport(&out, 8, 8, Config{ChunkSize: 16, ImageID: 7})
	data := bitmap(8, 8, 3)

	require.NoError(t, tr.Present(data))

	blocks, _ := parseBlocks(t, out.String())
	require.Len(t, blocks, (EncodedLen(len(data))+15)/16)

	var joined strings.Builder
	for i, b := range blocks {
		joined.WriteString(b.payload)
		last := i == len(blocks)-1

		if i == 0 {
			assert.True(t, strings.HasPrefix(b.control, "a=T,i=7,"))
		} else {
			assert.NotContains(t, b.control, "i=", "continuation chunks repeat no metadata")
		}

		if last {
			assert.True(t, strings.HasSuffix(b.control, "m=0"), "block %d: %s", i, b.control)
		} else {
			assert.True(t, strings.HasSuffix(b.control, "m=1"), "block %d: %s", i, b.control)
		}
	}
	assert.Equal(t, string(Encode(data)), joined.String())
	assert.Equal(t, "m=1", blocks[1].control)
}

func TestTransport_DirectUpdate(t *testing.T) {
	var out bytes.Buffer
	tr := NewTransport(&out, 2, 2, Config{Dialect: DialectDirect, ImageID: 9})

	require.NoError(t, tr.Present(bitmap(2, 2, 0)))
	out.Reset()
	require.NoError(t, tr.Present(bitmap(2, 2, 1)))

	blocks, rest := parseBlocks(t, out.String())
	require.Len(t, blocks, 1, "a direct update is one self-contained block")
	assert.Equal(t, "a=f,r=1,i=9,x=0,y=0,s=2,v=2,f=24,q=2,m=0", blocks[0].control)
	assert.Equal(t, string(Encode(bitmap(2, 2, 1))), blocks[0].payload)
	assert.Empty(t, rest, "newline is only written after the first frame")
}

func TestTransport_AnimationUpdate(t *testing.T) {
	var out bytes.Buffer
	tr := NewTransport(&out, 2, 2, Config{Dialect: DialectAnimation, ImageID: 11, ChunkSize: 4})

	require.NoError(t, tr.Present(bitmap(2, 2, 0)))
	out.Reset()
	require.NoError(t, tr.Present(bitmap(2, 2, 5)))

	blocks, rest := parseBlocks(t, out.String())
	require.Greater(t, len(blocks), 2)
	assert.Empty(t, rest)

	assert.Equal(t, "a=f,i=11,s=2,v=2,f=24,q=2,m=1", blocks[0].control)

	activate := blocks[len(blocks)-1]
	assert.Equal(t, "a=a,i=11", activate.control, "activate block carries only the identifier")
	assert.Empty(t, activate.payload)

	data := blocks[:len(blocks)-1]
	assert.Equal(t, "m=0", data[len(data)-1].control)

	var joined strings.Builder
	for _, b := range data {
		joined.WriteString(b.payload)
	}
	assert.Equal(t, string(Encode(bitmap(2, 2, 5))), joined.String())
}

func TestTransport_SessionIDStable(t *testing.T) {
	var out bytes.Buffer
	tr := NewTransport(&out, 1, 1, Config{Dialect: DialectAnimation})
	id := tr.Session().ID
	require.NotZero(t, id)

	for i := 0; i < 5; i++ {
		require.NoError(t, tr.Present([]byte{1, 2, 3}))
		assert.Equal(t, id, tr.Session().ID)
	}
	assert.Equal(t, uint64(5), tr.Session().Frame)
}

type failingWriter struct {
	fail bool
	buf  bytes.Buffer
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.fail {
		return 0, errors.New("terminal gone")
	}
	return w.buf.Write(p)
}

func TestTransport_FailedFrameIsDropped(t *testing.T) {
	w := &failingWriter{fail: true}
	tr := NewTransport(w, 1, 1, Config{ImageID: 3})

	err := tr.Present([]byte{1, 2, 3})
	require.Error(t, err)
	assert.Equal(t, 1, tr.Dropped())
	assert.Equal(t, uint64(0), tr.Session().Frame, "session does not advance on a dropped frame")

	// The next frame is still the create transition.
	w.fail = false
	require.NoError(t, tr.Present([]byte{1, 2, 3}))
	blocks, _ := parseBlocks(t, w.buf.String())
	require.Len(t, blocks, 1)
	assert.True(t, strings.HasPrefix(blocks[0].control, "a=T,"))

	assert.Error(t, tr.Present([]byte{1, 2}), "wrong bitmap size is rejected")
	assert.Equal(t, 2, tr.Dropped())
}

func TestTransport_FlushesBufferedWriter(t *testing.T) {
	var out bytes.Buffer
	bw := bufio.NewWriterSize(&out, 1<<16)
	tr := NewTransport(bw, 1, 1, Config{ImageID: 1})

	require.NoError(t, tr.Present([]byte{0xFF, 0xFF, 0xFF}))
	assert.Equal(t, "\x1b_Ga=T,i=1,f=24,s=1,v=1,q=2,c=30,r=10,m=0;////\x1b\\\r\n", out.String())
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("")
	require.NoError(t, err)
	assert.Equal(t, DialectDirect, d)

	d, err = ParseDialect("Animation")
	require.NoError(t, err)
	assert.Equal(t, DialectAnimation, d)

	_, err = ParseDialect("sixel")
	assert.ErrorIs(t, err, ErrUnknownDialect)
}
