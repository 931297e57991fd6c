//go:build sdl2

package audio

import (
	"fmt"
	"log/slog"

	"github.com/veandco/go-sdl2/sdl"
)

// sdlPollDelay is how long a blocked write sleeps between queue checks, in ms.
const sdlPollDelay = 5

// sdlDevice pushes periods into SDL's audio queue. Write blocks while the
// queue already holds BufferedPeriods-1 periods so the playback goroutine
// runs at the device rate.
// Note: building this requires SDL2 development libraries installed.
type sdlDevice struct {
	opts    Options
	id      sdl.AudioDeviceID
	spec    sdl.AudioSpec
	bytes   []byte
	started bool
}

func newSDLDevice(opts Options) Device {
	return &sdlDevice{opts: opts}
}

func (d *sdlDevice) Open() error {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return fmt.Errorf("failed to initialize SDL2 audio: %v", err)
	}

	desired := &sdl.AudioSpec{
		Freq:     int32(d.opts.SampleRate),
		Format:   sdl.AUDIO_S16LSB,
		Channels: Channels,
		Samples:  1024,
	}

	id, err := sdl.OpenAudioDevice("", false, desired, &d.spec, 0)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		return fmt.Errorf("failed to open SDL2 audio device: %v", err)
	}
	d.id = id
	d.bytes = make([]byte, d.opts.PeriodSamples*2)

	sdl.PauseAudioDevice(d.id, false)
	slog.Info("SDL2 audio device opened", "rate", d.spec.Freq, "samples", d.spec.Samples)
	return nil
}

func (d *sdlDevice) Write(period []int16) error {
	limit := uint32((BufferedPeriods - 1) * len(period) * 2)
	for sdl.GetQueuedAudioSize(d.id) > limit {
		sdl.Delay(sdlPollDelay)
	}

	// Starved: report before queueing, the playback loop requeues this
	// period after Prepare.
	if d.started && sdl.GetQueuedAudioSize(d.id) == 0 {
		return ErrUnderrun
	}

	if cap(d.bytes) < len(period)*2 {
		d.bytes = make([]byte, len(period)*2)
	}
	buf := d.bytes[:len(period)*2]
	putSamplesLE(buf, period)

	if err := sdl.QueueAudio(d.id, buf); err != nil {
		return fmt.Errorf("failed to queue audio: %v", err)
	}
	d.started = true
	return nil
}

func (d *sdlDevice) Prepare() error {
	sdl.ClearQueuedAudio(d.id)
	sdl.PauseAudioDevice(d.id, false)
	d.started = false
	return nil
}

func (d *sdlDevice) Close() error {
	if d.id != 0 {
		sdl.CloseAudioDevice(d.id)
		d.id = 0
	}
	sdl.QuitSubSystem(sdl.INIT_AUDIO)
	return nil
}
