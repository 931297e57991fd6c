package kitty

import "encoding/base64"

// EncodedLen returns the length of the base64 payload for n bitmap bytes.
func EncodedLen(n int) int {
	return base64.StdEncoding.EncodedLen(n)
}

// Encode returns the standard, padded base64 encoding of data. The terminal
// decodes the payload verbatim so the alphabet must be the RFC 4648 one.
func Encode(data []byte) []byte {
	out := make([]byte, EncodedLen(len(data)))
	base64.StdEncoding.Encode(out, data)
	return out
}

// Chunks splits payload into consecutive slices of at most size bytes. The
// slices alias payload. An empty payload yields a single empty chunk so that
// a terminating block is still transmitted.
func Chunks(payload []byte, size int) [][]byte {
	if size < 1 {
		size = 1
	}
	if len(payload) == 0 {
		return [][]byte{payload[:0:0]}
	}

	chunks := make([][]byte, 0, (len(payload)+size-1)/size)
	for start := 0; start < len(payload); start += size {
		end := min(start+size, len(payload))
		chunks = append(chunks, payload[start:end])
	}
	return chunks
}
