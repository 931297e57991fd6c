package machine

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// ErrShortProgram is returned for images too small to hold a load address
// and at least one byte of code.
var ErrShortProgram = errors.New("program image too short")

// Program is a PRG image: a little endian load address followed by the data
// copied to memory at that address.
type Program struct {
	LoadAddress uint16
	Data        []byte
}

// ParseProgram validates a PRG image.
func ParseProgram(image []byte) (Program, error) {
	if len(image) < 3 {
		return Program{}, fmt.Errorf("%w: %d bytes", ErrShortProgram, len(image))
	}

	p := Program{
		LoadAddress: binary.LittleEndian.Uint16(image),
		Data:        image[2:],
	}
	if end := int(p.LoadAddress) + len(p.Data); end > 0x10000 {
		return Program{}, fmt.Errorf("program at $%04X with %d bytes overruns memory", p.LoadAddress, len(p.Data))
	}
	return p, nil
}

// End returns the address following the last loaded byte.
func (p Program) End() int {
	return int(p.LoadAddress) + len(p.Data)
}

// ReadProgramFile reads a program image from disk.
func ReadProgramFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	return data, nil
}
