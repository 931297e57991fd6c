package machine

// PixelSink receives pixels produced during a quantum. color packs red in
// bits 0-7, green in 8-15 and blue in 16-23.
type PixelSink interface {
	SetPixel(x, y int, color uint32)
}

// SampleSink receives batches of mono audio samples in [-1, 1].
type SampleSink interface {
	PushSamples(samples []float32)
}

// Machine is the emulation core driven by the presentation loop. Pixel and
// sample sinks are injected at construction.
type Machine interface {
	// Run emulates usec microseconds of virtual time.
	Run(usec int64)

	// LoadProgram injects a program image into emulated memory.
	LoadProgram(image []byte) error

	// KeyDown and KeyUp feed keyboard matrix codes.
	KeyDown(code int)
	KeyUp(code int)

	// Screen returns the visible screen size in pixels.
	Screen() (width, height int)
}
