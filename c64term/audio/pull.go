package audio

import "encoding/binary"

// Reader adapts a Queue to the io.Reader pulled by callback style backends.
// Each Read is one consumer period of len(p)/2 samples; shortfalls are
// filled with silence so Read never blocks and never returns short.
// A Reader is meant to be called from a single playback goroutine.
type Reader struct {
	queue *Queue
	buf   []int16
}

// NewReader creates a reader draining queue.
func NewReader(queue *Queue) *Reader {
	return &Reader{queue: queue}
}

func (r *Reader) Read(p []byte) (int, error) {
	n := len(p) / 2
	if cap(r.buf) < n {
		r.buf = make([]int16, n)
	}
	period := r.buf[:n]

	r.queue.Drain(period)
	putSamplesLE(p, period)
	if len(p)%2 == 1 {
		p[len(p)-1] = 0
	}

	return len(p), nil
}

// putSamplesLE encodes src as little endian int16 into dst.
func putSamplesLE(dst []byte, src []int16) {
	for i, s := range src {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(s))
	}
}
