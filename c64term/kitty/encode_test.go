package kitty

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_KnownValues(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{"empty", nil, ""},
		{"white pixel", []byte{0xFF, 0xFF, 0xFF}, "////"},
		{"two bytes", []byte{0x00, 0x01}, "AAE="},
		{"one byte", []byte{0x00}, "AA=="},
		{"text", []byte("Man"), "TWFu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(Encode(tt.data)))
		})
	}
}

func TestEncode_RoundTripAndLength(t *testing.T) {
	data := make([]byte, 200)
	for i := range data {
		data[i] = byte(i*37 + 11)
	}

	for n := 0; n <= len(data); n++ {
		in := data[:n]
		out := Encode(in)

		require.Len(t, out, 4*((n+2)/3), "length for %d bytes", n)
		assert.Equal(t, EncodedLen(n), len(out))

		padding := bytes.Count(out, []byte{'='})
		switch n % 3 {
		case 0:
			assert.Equal(t, 0, padding, "no padding for %d bytes", n)
		case 1:
			assert.Equal(t, 2, padding, "two '=' for %d bytes", n)
		case 2:
			assert.Equal(t, 1, padding, "one '=' for %d bytes", n)
		}

		decoded, err := base64.StdEncoding.DecodeString(string(out))
		require.NoError(t, err)
		assert.Equal(t, in, decoded)
	}
}

func TestEncode_Alphabet(t *testing.T) {
	// 0x00..0xFF in 3-byte groups touches every sextet value.
	all := make([]byte, 256*3)
	for i := range 256 {
		all[i*3] = byte(i)
		all[i*3+1] = byte(255 - i)
		all[i*3+2] = byte(i * 7)
	}
	out := string(Encode(all))

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	for _, c := range out {
		assert.True(t, strings.ContainsRune(alphabet, c), "unexpected character %q", c)
	}
	assert.Equal(t, base64.StdEncoding.EncodeToString(all), out)
}

func TestChunks_ConcatenationAndBounds(t *testing.T) {
	payload := Encode(bytes.Repeat([]byte{0xAB, 0xCD, 0xEF, 0x01}, 1500))

	for _, size := range []int{1, 3, 4, 100, 4095, 4096, 4097, len(payload), len(payload) + 10} {
		chunks := Chunks(payload, size)
		require.NotEmpty(t, chunks)

		var joined []byte
		for i, c := range chunks {
			assert.LessOrEqual(t, len(c), size, "chunk %d exceeds bound %d", i, size)
			if i < len(chunks)-1 {
				assert.Equal(t, size, len(c), "only the last chunk may be short")
			}
			joined = append(joined, c...)
		}
		assert.Equal(t, payload, joined, "size %d", size)
	}
}

func TestChunks_EmptyAndInvalidSize(t *testing.T) {
	chunks := Chunks(nil, 4096)
	require.Len(t, chunks, 1)
	assert.Empty(t, chunks[0])

	chunks = Chunks([]byte("abc"), 0)
	assert.Len(t, chunks, 3, "sizes below 1 are treated as 1")
}
