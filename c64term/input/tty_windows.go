//go:build windows

package input

import "errors"

// TTY stub for platforms without a raw /dev/tty
type TTY struct{}

func OpenTTY(*Decoder) (*TTY, error) {
	return nil, errors.New("raw terminal input not available on windows")
}

func (t *TTY) Write(p []byte) (int, error) { return 0, errors.New("terminal not open") }
func (t *TTY) Poll() []Event                { return nil }
func (t *TTY) Close() error                 { return nil }
