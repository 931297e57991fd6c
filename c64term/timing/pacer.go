package timing

import (
	"log/slog"
	"time"
)

// driftLogInterval is how many frames pass between drift debug logs.
const driftLogInterval = 150

// Pacer sleeps so that emulated time tracks wall time. Instead of sleeping a
// fixed quantum per frame it compares the total emulated time against the
// total elapsed wall time, so frames that overrun are repaid by shorter
// sleeps later and lag never accumulates.
type Pacer struct {
	clock    Clock
	quantum  time.Duration
	start    time.Time
	emulated time.Duration
	frames   int64

	// frameStart is the wall time of the last Advance.
	frameStart time.Time
}

// NewPacer creates a pacer for the given quantum. A nil clock selects the
// system clock. The start time is taken immediately.
func NewPacer(quantum time.Duration, clock Clock) *Pacer {
	if clock == nil {
		clock = SystemClock{}
	}
	if quantum <= 0 {
		quantum = FrameDuration()
	}

	now := clock.Now()
	return &Pacer{
		clock:      clock,
		quantum:    quantum,
		start:      now,
		frameStart: now,
	}
}

// Quantum returns the virtual time advanced per frame.
func (p *Pacer) Quantum() time.Duration {
	return p.quantum
}

// Emulated returns the total virtual time emulated so far.
func (p *Pacer) Emulated() time.Duration {
	return p.emulated
}

// Advance records one quantum of emulated time.
func (p *Pacer) Advance() {
	p.frameStart = p.clock.Now()
	p.emulated += p.quantum
	p.frames++
}

// Drift returns the difference between emulated and elapsed wall time at the
// last Advance, not counting the quantum just recorded: zero on schedule,
// negative when behind.
func (p *Pacer) Drift() time.Duration {
	return p.emulated - p.quantum - p.frameStart.Sub(p.start)
}

// Processing returns the wall time spent since the last Advance.
func (p *Pacer) Processing() time.Duration {
	return p.clock.Now().Sub(p.frameStart)
}

// SleepTime returns the sleep needed to end the current frame on schedule:
// quantum plus drift minus the time already spent on the frame, never
// negative. This equals total emulated time minus total elapsed time.
func (p *Pacer) SleepTime() time.Duration {
	return max(0, p.quantum+p.Drift()-p.Processing())
}

// WaitForNextFrame sleeps for SleepTime.
func (p *Pacer) WaitForNextFrame() {
	sleep := p.SleepTime()

	if p.frames%driftLogInterval == 0 {
		slog.Debug("Frame timing",
			"frames", p.frames,
			"emulated_ms", p.emulated.Milliseconds(),
			"drift_us", p.Drift().Microseconds(),
			"sleep_us", sleep.Microseconds())
	}

	if sleep > 0 {
		p.clock.Sleep(sleep)
	}
}

// Reset restarts the timing from the current instant.
func (p *Pacer) Reset() {
	p.start = p.clock.Now()
	p.frameStart = p.start
	p.emulated = 0
	p.frames = 0
}

var _ Limiter = (*Pacer)(nil)
