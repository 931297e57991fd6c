package audio

import (
	"log/slog"
	"math"
	"sync"
)

// Stats holds the queue counters.
type Stats struct {
	Accepted       int // batches appended
	Dropped        int // batches rejected because the queue was full
	Produced       int // samples appended
	Consumed       int // real samples handed to the device
	SilentPeriods  int // drains that found the queue empty
	PaddedSamples  int // zero samples used to complete short periods
	BufferedLength int
}

// Queue is a bounded FIFO of int16 samples shared by the emulation (producer)
// and a playback backend (consumer). Every method holds the lock only for the
// duration of the call.
type Queue struct {
	mu       sync.Mutex
	samples  []int16
	capacity int
	stats    Stats
}

// NewQueue creates a queue bounded to capacity samples.
func NewQueue(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{
		samples:  make([]int16, 0, capacity),
		capacity: capacity,
	}
}

// Capacity returns the maximum number of buffered samples.
func (q *Queue) Capacity() int {
	return q.capacity
}

// Len returns the number of buffered samples.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.samples)
}

// PushSamples converts a batch of [-1, 1] samples and appends it. A batch that
// does not fit is rejected as a whole and the queue is left untouched. It
// returns false when the batch was dropped.
func (q *Queue) PushSamples(samples []float32) bool {
	if len(samples) == 0 {
		return true
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.samples)+len(samples) > q.capacity {
		q.stats.Dropped++
		slog.Debug("Audio batch dropped", "samples", len(samples), "buffered", len(q.samples))
		return false
	}

	for _, s := range samples {
		q.samples = append(q.samples, toPCM(s))
	}
	q.stats.Accepted++
	q.stats.Produced += len(samples)

	return true
}

// Drain fills dst with buffered samples taken from the head of the queue.
// When fewer than len(dst) samples are available the remainder is silence.
// It returns the number of real samples copied.
func (q *Queue) Drain(dst []int16) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := copy(dst, q.samples)
	// Shift the tail down so the backing array keeps its capacity.
	remaining := copy(q.samples, q.samples[n:])
	q.samples = q.samples[:remaining]

	clear(dst[n:])

	q.stats.Consumed += n
	if len(dst) > 0 {
		if n == 0 {
			q.stats.SilentPeriods++
		}
		q.stats.PaddedSamples += len(dst) - n
	}

	return n
}

// Stats returns a snapshot of the queue counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := q.stats
	s.BufferedLength = len(q.samples)
	return s
}

// toPCM converts a float sample to signed 16 bit PCM.
func toPCM(s float32) int16 {
	v := float64(s)
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	} else if math.IsNaN(v) {
		v = 0
	}
	return int16(math.Round(v * maxAmplitude))
}
