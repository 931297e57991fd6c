package debug

import (
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-c64term/c64term/video"
)

func TestFrameImage(t *testing.T) {
	fb := video.NewFrameBufferSize(2, 1)
	fb.SetPixel(0, 0, 0x332211)
	fb.SetPixel(1, 0, 0xFFFFFF)

	img := FrameImage(fb)
	assert.Equal(t, []byte{0x11, 0x22, 0x33, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, img.Pix)
}

func TestScaleImage(t *testing.T) {
	fb := video.NewFrameBufferSize(2, 2)
	fb.SetPixel(1, 1, 0x0000FF)

	img := ScaleImage(FrameImage(fb), 3)
	assert.Equal(t, 6, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())

	r, _, _, _ := img.At(5, 5).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)
	r, _, _, _ = img.At(2, 2).RGBA()
	assert.Equal(t, uint32(0), r)

	src := FrameImage(fb)
	assert.Same(t, src, ScaleImage(src, 1))
}

func TestSaveFramePNGToDir(t *testing.T) {
	dir := t.TempDir()
	fb := video.NewFrameBuffer()
	fb.Clear(0x00FF00)

	path, err := SaveFramePNGToDir(fb, "snap", dir, 2)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, video.FramebufferWidth*2, img.Bounds().Dx())
	assert.Equal(t, video.FramebufferHeight*2, img.Bounds().Dy())

	_, g, _, a := img.At(10, 10).RGBA()
	assert.Equal(t, uint32(0xFFFF), g)
	assert.Equal(t, uint32(0xFFFF), a)
}

func TestSaveFramePNGToDir_MissingDirectory(t *testing.T) {
	_, err := SaveFramePNGToDir(video.NewFrameBuffer(), "snap", "/nonexistent/dir/for/snapshots", 1)
	assert.Error(t, err)
}
