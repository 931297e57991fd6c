package video

// Visible C64 screen area, border included.
const (
	FramebufferWidth  = 392
	FramebufferHeight = 272

	// BytesPerPixel is the size of one RGB24 pixel.
	BytesPerPixel = 3
)

// FrameBuffer is a fixed size RGB24 raster, row-major, 3 bytes per pixel.
type FrameBuffer struct {
	width  int
	height int
	buffer []byte
}

// NewFrameBuffer creates a black frame buffer with the C64 screen size.
func NewFrameBuffer() *FrameBuffer {
	return NewFrameBufferSize(FramebufferWidth, FramebufferHeight)
}

// NewFrameBufferSize creates a black frame buffer with the specified size.
func NewFrameBufferSize(width, height int) *FrameBuffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	return &FrameBuffer{
		width:  width,
		height: height,
		buffer: make([]byte, width*height*BytesPerPixel),
	}
}

func (fb *FrameBuffer) Width() int  { return fb.width }
func (fb *FrameBuffer) Height() int { return fb.height }

// SetPixel stores a packed color at (x, y). The color carries red in bits
// 0-7, green in bits 8-15 and blue in bits 16-23. Writes outside the raster
// are ignored.
func (fb *FrameBuffer) SetPixel(x, y int, color uint32) {
	if x < 0 || x >= fb.width || y < 0 || y >= fb.height {
		return
	}

	i := (y*fb.width + x) * BytesPerPixel
	fb.buffer[i] = byte(color)
	fb.buffer[i+1] = byte(color >> 8)
	fb.buffer[i+2] = byte(color >> 16)
}

// GetPixel returns the red, green and blue components at (x, y).
func (fb *FrameBuffer) GetPixel(x, y int) (r, g, b uint8) {
	if x < 0 || x >= fb.width || y < 0 || y >= fb.height {
		return 0, 0, 0
	}

	i := (y*fb.width + x) * BytesPerPixel
	return fb.buffer[i], fb.buffer[i+1], fb.buffer[i+2]
}

// Clear paints the whole raster with a packed color.
func (fb *FrameBuffer) Clear(color uint32) {
	r, g, b := byte(color), byte(color>>8), byte(color>>16)
	for i := 0; i < len(fb.buffer); i += BytesPerPixel {
		fb.buffer[i] = r
		fb.buffer[i+1] = g
		fb.buffer[i+2] = b
	}
}

// Bytes returns the raw RGB24 bitmap. The slice aliases the frame buffer and
// must not be modified by callers.
func (fb *FrameBuffer) Bytes() []byte {
	return fb.buffer
}
