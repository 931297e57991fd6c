package audio

import (
	"fmt"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE_FORMAT_PCM audio format tag.
const wavFormatPCM = 1

// WAVDevice records playback into a WAV file. In realtime mode every write
// waits for one period of wall time, so the file holds exactly what a sound
// card would have played, underflow silence included.
type WAVDevice struct {
	path     string
	rate     int
	period   int
	realtime bool

	file    *os.File
	encoder *wav.Encoder
	buffer  *goaudio.IntBuffer
	ticker  *time.Ticker
	written int
}

// NewWAVDevice creates a device writing mono 16 bit PCM to path.
func NewWAVDevice(path string, rate, period int, realtime bool) *WAVDevice {
	return &WAVDevice{
		path:     path,
		rate:     rate,
		period:   period,
		realtime: realtime,
	}
}

func (d *WAVDevice) Open() error {
	f, err := os.Create(d.path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", d.path, err)
	}
	d.file = f
	d.encoder = wav.NewEncoder(f, d.rate, BitDepth, Channels, wavFormatPCM)
	d.buffer = &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: Channels, SampleRate: d.rate},
		Data:           make([]int, d.period),
		SourceBitDepth: BitDepth,
	}

	if d.realtime {
		d.ticker = time.NewTicker(time.Duration(d.period) * time.Second / time.Duration(d.rate))
	}
	return nil
}

func (d *WAVDevice) Write(period []int16) error {
	if d.encoder == nil {
		return fmt.Errorf("wav device %s is not open", d.path)
	}
	if d.ticker != nil {
		<-d.ticker.C
	}

	if cap(d.buffer.Data) < len(period) {
		d.buffer.Data = make([]int, len(period))
	}
	d.buffer.Data = d.buffer.Data[:len(period)]
	for i, s := range period {
		d.buffer.Data[i] = int(s)
	}

	if err := d.encoder.Write(d.buffer); err != nil {
		return err
	}
	d.written += len(period)
	return nil
}

// Offline reports whether the device runs faster than realtime.
func (d *WAVDevice) Offline() bool {
	return !d.realtime
}

// Written returns the number of samples written so far.
func (d *WAVDevice) Written() int {
	return d.written
}

// Prepare is a no-op, a file never starves.
func (d *WAVDevice) Prepare() error {
	return nil
}

func (d *WAVDevice) Close() error {
	if d.ticker != nil {
		d.ticker.Stop()
		d.ticker = nil
	}
	if d.encoder == nil {
		return nil
	}

	var err error
	if d.written == 0 {
		// The encoder emits the header on its first write.
		d.buffer.Data = d.buffer.Data[:0]
		err = d.encoder.Write(d.buffer)
	}
	if cerr := d.encoder.Close(); err == nil {
		err = cerr
	}
	d.encoder = nil
	if cerr := d.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to finalize %s: %w", d.path, err)
	}
	return nil
}
