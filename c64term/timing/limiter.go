package timing

import "time"

// Limiter keeps the emulation loop aligned with wall-clock time.
type Limiter interface {
	// Advance records one quantum of emulated time.
	Advance()

	// WaitForNextFrame blocks until it's time for the next frame.
	// Returns immediately if timing is behind schedule.
	WaitForNextFrame()

	// Reset resets the timing state, useful after pauses.
	Reset()
}

// NewNoOpLimiter returns a limiter that doesn't limit (for headless mode).
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) Advance()          {}
func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}

// Constants for the 30 Hz presentation loop
const (
	// FrameMicroseconds is the emulated time advanced per loop iteration.
	FrameMicroseconds = 33333

	// TargetFPS is the presentation rate.
	TargetFPS = 30
)

// FrameDuration returns the virtual time quantum of a single frame.
func FrameDuration() time.Duration {
	return FrameMicroseconds * time.Microsecond
}

// Clock abstracts wall time so pacing can be tested deterministically.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock is the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }
