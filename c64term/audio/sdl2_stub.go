//go:build !sdl2

package audio

import "fmt"

// sdlDevice stub for when SDL2 is not available
type sdlDevice struct{}

func newSDLDevice(Options) Device {
	return &sdlDevice{}
}

func (d *sdlDevice) Open() error {
	return fmt.Errorf("SDL2 audio backend not available - compile with -tags sdl2 and install SDL2 development libraries")
}

func (d *sdlDevice) Write([]int16) error {
	return fmt.Errorf("SDL2 audio backend not available")
}

func (d *sdlDevice) Prepare() error {
	return nil
}

func (d *sdlDevice) Close() error {
	return nil
}
