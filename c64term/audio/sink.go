package audio

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownBackend is returned by New for unrecognized backend names.
	ErrUnknownBackend = errors.New("unknown audio backend")

	// ErrUnderrun is reported by a Device when the hardware ran out of data.
	// The playback loop recovers by calling Prepare.
	ErrUnderrun = errors.New("audio device underrun")
)

// Sink receives samples from the emulation and plays them back.
type Sink interface {
	// Init opens the output device and starts playback.
	Init() error

	// PushSamples hands a batch of [-1, 1] samples to the sink. It never
	// blocks on the device.
	PushSamples(samples []float32)

	// Close stops playback and releases the device.
	Close() error
}

// Backend names accepted by New.
const (
	BackendOto  = "oto"
	BackendSDL2 = "sdl2"
	BackendWAV  = "wav"
	BackendOff  = "off"
)

// Backends lists the selectable backends, default first.
var Backends = []string{BackendOto, BackendSDL2, BackendWAV, BackendOff}

// Options configures a sink.
type Options struct {
	Backend       string
	SampleRate    int
	PeriodSamples int
	QueueCapacity int
	// WAVPath is the output file of the wav backend.
	WAVPath string
	// Realtime paces the wav backend to the sample rate.
	Realtime bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Backend:       BackendOto,
		SampleRate:    SampleRate,
		PeriodSamples: PeriodSamples,
		QueueCapacity: QueueCapacity,
		WAVPath:       "c64term.wav",
		Realtime:      true,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Backend == "" {
		o.Backend = d.Backend
	}
	if o.SampleRate <= 0 {
		o.SampleRate = d.SampleRate
	}
	if o.PeriodSamples <= 0 {
		o.PeriodSamples = o.SampleRate / 10
	}
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = d.QueueCapacity
	}
	if o.WAVPath == "" {
		o.WAVPath = d.WAVPath
	}
	return o
}

// ValidBackend reports whether name selects a known backend.
func ValidBackend(name string) bool {
	for _, b := range Backends {
		if strings.EqualFold(name, b) {
			return true
		}
	}
	return false
}

// New creates the sink selected by opts.Backend. The sink is not started
// until Init is called.
func New(opts Options) (Sink, error) {
	opts = opts.withDefaults()
	queue := NewQueue(opts.QueueCapacity)

	switch strings.ToLower(opts.Backend) {
	case BackendOto:
		return newOtoSink(queue, opts), nil
	case BackendSDL2:
		return NewPushSink(newSDLDevice(opts), queue, opts.PeriodSamples), nil
	case BackendWAV:
		return NewPushSink(NewWAVDevice(opts.WAVPath, opts.SampleRate, opts.PeriodSamples, opts.Realtime), queue, opts.PeriodSamples), nil
	case BackendOff:
		return &nullSink{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownBackend, opts.Backend, strings.Join(Backends, ", "))
	}
}

// nullSink discards everything. It is only used when audio is explicitly
// turned off.
type nullSink struct{}

func (n *nullSink) Init() error { return nil }

func (n *nullSink) PushSamples([]float32) {}

func (n *nullSink) Close() error { return nil }
