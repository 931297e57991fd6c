package machine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/valerio/go-c64term/c64term/input"
)

// Screen geometry of the stand-in machine, matching the C64 visible area.
const (
	ScreenWidth  = 392
	ScreenHeight = 272

	innerWidth  = 320
	innerHeight = 200
	borderX     = (ScreenWidth - innerWidth) / 2
	borderY     = (ScreenHeight - innerHeight) / 2
)

// Pattern constants
const (
	PatternCount = 4

	patternTileSize     = 8
	patternStripeWidth  = 4
	patternStripeSpeed  = 2
	patternDiagonalStep = 4
	cursorSize          = 8

	// frameUsec is the virtual time between two animation steps.
	frameUsec = 33333

	// batchSamples is the size of each batch handed to the sample sink.
	batchSamples = 128

	toneUsec      = 100_000
	toneAmplitude = 0.25
	sampleRate    = 44100
)

// palette holds the 16 C64 colors packed as 0x00BBGGRR.
var palette = [16]uint32{
	0x000000, 0xFFFFFF, 0x2B3768, 0xB2A470,
	0x863D6F, 0x438D58, 0x792835, 0x6FC7B8,
	0x254F6F, 0x003943, 0x59679A, 0x444444,
	0x6C6C6C, 0x84D29A, 0xB55E6C, 0x959595,
}

// Named palette indices.
const (
	colorBlack     = 0
	colorWhite     = 1
	colorBlue      = 6
	colorYellow    = 7
	colorLightBlue = 14
)

// Pattern is a stand-in emulation core. It renders animated test patterns
// inside a C64 style border, beeps on key presses and validates program
// images, honoring the same sinks and virtual time contract as the real
// core.
type Pattern struct {
	pixels  PixelSink
	samples SampleSink

	patternType int
	elapsed     int64 // virtual microseconds
	frame       int64

	cursorX, cursorY int

	toneFreq      float64
	toneRemaining int64 // virtual microseconds
	phase         float64
	sampleDebt    float64
	batch         []float32

	memory  [0x10000]byte
	program *Program
}

// NewPattern creates the stand-in machine writing to the given sinks. A nil
// sink discards its output.
func NewPattern(pixels PixelSink, samples SampleSink) *Pattern {
	if pixels == nil {
		pixels = discard{}
	}
	if samples == nil {
		samples = discard{}
	}

	return &Pattern{
		pixels:  pixels,
		samples: samples,
		cursorX: innerWidth / 2,
		cursorY: innerHeight / 2,
		batch:   make([]float32, 0, batchSamples),
	}
}

func (p *Pattern) Screen() (int, int) {
	return ScreenWidth, ScreenHeight
}

// PatternType returns the pattern currently drawn.
func (p *Pattern) PatternType() int {
	return p.patternType
}

// Program returns the last program loaded, if any.
func (p *Pattern) Program() (Program, bool) {
	if p.program == nil {
		return Program{}, false
	}
	return *p.program, true
}

// Peek reads emulated memory.
func (p *Pattern) Peek(addr uint16) byte {
	return p.memory[addr]
}

// Run emulates usec microseconds: audio for the whole span, then one redraw.
func (p *Pattern) Run(usec int64) {
	if usec <= 0 {
		return
	}

	p.generateAudio(usec)

	p.elapsed += usec
	p.frame = p.elapsed / frameUsec
	p.draw()
}

func (p *Pattern) KeyDown(code int) {
	switch code {
	case input.KeyCsrLeft:
		p.cursorX = max(0, p.cursorX-cursorSize)
	case input.KeyCsrRight:
		p.cursorX = min(innerWidth-cursorSize, p.cursorX+cursorSize)
	case input.KeyCsrDown:
		p.cursorY = min(innerHeight-cursorSize, p.cursorY+cursorSize)
	case input.KeyCsrUp:
		p.cursorY = max(0, p.cursorY-cursorSize)
	case input.KeySpace:
		p.patternType = (p.patternType + 1) % PatternCount
		slog.Debug("Switched test pattern", "pattern", p.patternType)
	}

	// Each key plays a short note, pitch rising with the key code.
	p.toneFreq = 220 * math.Pow(2, float64(code%48)/12)
	p.toneRemaining = toneUsec
}

// KeyUp is a no-op, notes play for a fixed time.
func (p *Pattern) KeyUp(int) {}

// Cursor returns the position of the cursor block inside the screen area.
func (p *Pattern) Cursor() (x, y int) {
	return p.cursorX, p.cursorY
}

// LoadProgram copies a PRG image into memory at its load address.
func (p *Pattern) LoadProgram(image []byte) error {
	prg, err := ParseProgram(image)
	if err != nil {
		return err
	}

	copy(p.memory[prg.LoadAddress:], prg.Data)
	prg.Data = append([]byte(nil), prg.Data...)
	p.program = &prg

	slog.Info("Program loaded",
		"bytes", len(image),
		"start", prg.LoadAddress,
		"end", prg.End(),
		"hint", fmt.Sprintf("Run the program with SYS %d", prg.LoadAddress))
	return nil
}

func (p *Pattern) generateAudio(usec int64) {
	p.sampleDebt += float64(usec) * sampleRate / 1e6
	n := int(p.sampleDebt)
	p.sampleDebt -= float64(n)

	perSample := 1e6 / float64(sampleRate)
	for i := 0; i < n; i++ {
		var s float32
		if p.toneRemaining > 0 {
			if p.phase < 0.5 {
				s = toneAmplitude
			} else {
				s = -toneAmplitude
			}
			p.phase += p.toneFreq / sampleRate
			p.phase -= math.Floor(p.phase)
			p.toneRemaining -= int64(perSample)
		}

		p.batch = append(p.batch, s)
		if len(p.batch) == batchSamples {
			p.samples.PushSamples(p.batch)
			p.batch = p.batch[:0]
		}
	}
}

func (p *Pattern) draw() {
	border := palette[colorLightBlue]
	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			ix, iy := x-borderX, y-borderY
			if ix < 0 || ix >= innerWidth || iy < 0 || iy >= innerHeight {
				p.pixels.SetPixel(x, y, border)
				continue
			}
			p.pixels.SetPixel(x, y, p.innerColor(ix, iy))
		}
	}
}

func (p *Pattern) innerColor(x, y int) uint32 {
	if x >= p.cursorX && x < p.cursorX+cursorSize && y >= p.cursorY && y < p.cursorY+cursorSize {
		if p.frame/15%2 == 0 {
			return palette[colorLightBlue]
		}
		return palette[colorBlue]
	}

	// A loaded program is shown as a bar along the top edge.
	if p.program != nil && y < 2 {
		return palette[colorYellow]
	}

	frame := int(p.frame)
	switch p.patternType {
	case 0: // Checkerboard
		if ((x/patternTileSize)+(y/patternTileSize))%2 == 0 {
			return palette[colorBlue]
		}
		return palette[colorLightBlue]
	case 1: // Color bars
		return palette[x*len(palette)/innerWidth]
	case 2: // Moving stripes
		if ((x+frame*patternStripeSpeed)/patternStripeWidth)%2 == 0 {
			return palette[colorWhite]
		}
		return palette[colorBlack]
	default: // Moving diagonals
		if ((x+y+frame*patternDiagonalStep)/patternTileSize)%2 == 0 {
			return palette[colorLightBlue]
		}
		return palette[colorBlue]
	}
}

type discard struct{}

func (discard) SetPixel(int, int, uint32) {}
func (discard) PushSamples([]float32)     {}

var _ Machine = (*Pattern)(nil)
