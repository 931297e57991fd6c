package debug

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/valerio/go-c64term/c64term/video"
	"golang.org/x/image/draw"
)

// FrameImage converts an RGB24 frame buffer to an opaque RGBA image.
func FrameImage(frame *video.FrameBuffer) *image.RGBA {
	w, h := frame.Width(), frame.Height()
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	src := frame.Bytes()
	for i, j := 0, 0; i+video.BytesPerPixel <= len(src); i, j = i+video.BytesPerPixel, j+4 {
		img.Pix[j] = src[i]
		img.Pix[j+1] = src[i+1]
		img.Pix[j+2] = src[i+2]
		img.Pix[j+3] = 0xFF
	}
	return img
}

// ScaleImage enlarges an image by an integer factor with nearest neighbor
// sampling so pixels stay sharp.
func ScaleImage(src image.Image, scale int) image.Image {
	if scale <= 1 {
		return src
	}

	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// SaveFramePNGToDir saves a framebuffer as PNG with timestamp to a specific
// directory, the working directory when empty. It returns the file written.
func SaveFramePNGToDir(frame *video.FrameBuffer, baseName, directory string, scale int) (string, error) {
	img := ScaleImage(FrameImage(frame), scale)

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.png", baseName, timestamp)

	outputDir := directory
	if outputDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		outputDir = cwd
	}

	filePath := filepath.Join(outputDir, filename)
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", filePath, err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}

	size := img.Bounds().Size()
	slog.Info("Snapshot saved", "path", filePath, "size", fmt.Sprintf("%dx%d", size.X, size.Y), "format", "PNG")
	return filePath, nil
}
