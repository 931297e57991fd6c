package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// offlinePoll is how long an offline playback loop waits for a full period.
const offlinePoll = time.Millisecond

// Device is a synchronous output device driven by a PushSink.
type Device interface {
	// Open acquires and configures the device.
	Open() error

	// Write blocks until the device accepted one period of samples. It
	// returns ErrUnderrun when the device starved before the write, in which
	// case the period is written again after Prepare.
	Write(period []int16) error

	// Prepare resets the device after an underrun.
	Prepare() error

	// Close releases the device.
	Close() error
}

// OfflineDevice is implemented by devices that are not clocked by hardware,
// such as a file written faster than realtime. They receive only full
// periods of real samples, never underflow padding, and the remainder is
// flushed on Close.
type OfflineDevice interface {
	Device
	Offline() bool
}

// PushSink owns a playback goroutine that repeatedly drains one period from
// the queue and writes it to the device.
type PushSink struct {
	queue   *Queue
	device  Device
	period  int
	running atomic.Bool
	wg      sync.WaitGroup
	opened  bool

	underruns atomic.Int64
}

// NewPushSink creates a push style sink writing periods of the given size.
func NewPushSink(device Device, queue *Queue, period int) *PushSink {
	if period <= 0 {
		period = PeriodSamples
	}
	return &PushSink{
		queue:  queue,
		device: device,
		period: period,
	}
}

// Init opens the device and starts the playback goroutine.
func (s *PushSink) Init() error {
	if err := s.device.Open(); err != nil {
		return fmt.Errorf("failed to open audio device: %w", err)
	}
	s.opened = true

	s.running.Store(true)
	s.wg.Add(1)
	go s.playback()

	slog.Info("Audio playback started", "period", s.period, "capacity", s.queue.Capacity())
	return nil
}

// PushSamples appends a batch to the shared queue.
func (s *PushSink) PushSamples(samples []float32) {
	s.queue.PushSamples(samples)
}

// Queue returns the queue drained by the playback goroutine.
func (s *PushSink) Queue() *Queue {
	return s.queue
}

// Underruns returns how many device underruns were recovered.
func (s *PushSink) Underruns() int {
	return int(s.underruns.Load())
}

// Close stops the playback goroutine, waits for it and closes the device.
// The queue is only released after the goroutine has exited.
func (s *PushSink) Close() error {
	s.running.Store(false)
	s.wg.Wait()

	if !s.opened {
		return nil
	}
	s.opened = false

	if s.offline() {
		if n := s.queue.Len(); n > 0 {
			rest := make([]int16, n)
			s.queue.Drain(rest)
			if err := s.device.Write(rest); err != nil {
				slog.Error("Failed to flush audio", "error", err)
			}
		}
	}

	stats := s.queue.Stats()
	slog.Debug("Audio playback stopped",
		"dropped_batches", stats.Dropped,
		"silent_periods", stats.SilentPeriods,
		"underruns", s.Underruns())

	return s.device.Close()
}

func (s *PushSink) playback() {
	defer s.wg.Done()

	offline := s.offline()
	buf := make([]int16, s.period)
	for s.running.Load() {
		if offline && s.queue.Len() < s.period {
			time.Sleep(offlinePoll)
			continue
		}
		s.queue.Drain(buf)

		err := s.device.Write(buf)
		switch {
		case err == nil:
		case errors.Is(err, ErrUnderrun):
			s.underruns.Add(1)
			slog.Debug("Audio underrun, preparing device")
			if err := s.device.Prepare(); err != nil {
				slog.Error("Failed to prepare audio device", "error", err)
				return
			}
			// The period was not played; it is the first one after Prepare.
			if err := s.device.Write(buf); err != nil && !errors.Is(err, ErrUnderrun) {
				slog.Error("Audio device write failed", "error", err)
				return
			}
		default:
			slog.Error("Audio device write failed", "error", err)
			return
		}
	}
}

func (s *PushSink) offline() bool {
	d, ok := s.device.(OfflineDevice)
	return ok && d.Offline()
}
