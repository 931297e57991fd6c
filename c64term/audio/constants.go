package audio

// Output format shared by every backend: mono, signed 16 bit.
const (
	// SampleRate is the playback rate in Hz.
	SampleRate = 44100

	// Channels is the number of interleaved output channels.
	Channels = 1

	// BitDepth is the size of one sample in bits.
	BitDepth = 16

	// QueueCapacity bounds the samples buffered between the emulation and
	// the device, about 1.5s at SampleRate.
	QueueCapacity = 64 * 1024

	// PeriodSamples is the number of samples consumed per device write
	// (100ms).
	PeriodSamples = SampleRate / 10

	// BufferedPeriods is how many periods push devices keep queued.
	BufferedPeriods = 3

	// maxAmplitude scales [-1, 1] float samples to int16.
	maxAmplitude = 32767
)
