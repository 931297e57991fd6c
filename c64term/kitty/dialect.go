package kitty

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDialect is returned by ParseDialect for unrecognized names.
var ErrUnknownDialect = errors.New("unknown graphics protocol dialect")

// Dialect selects how frames after the first one are transmitted.
type Dialect int

const (
	// DialectDirect overwrites the root frame at offset (0,0). The terminal
	// swaps the displayed image as soon as the last chunk arrives.
	DialectDirect Dialect = iota

	// DialectAnimation loads every update as a new animation frame which is
	// only shown after a separate activate block.
	DialectAnimation
)

func (d Dialect) String() string {
	switch d {
	case DialectDirect:
		return "direct"
	case DialectAnimation:
		return "animation"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}

// ParseDialect maps a mode name to a Dialect. The empty string selects the
// default, DialectDirect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "direct", "a":
		return DialectDirect, nil
	case "animation", "b":
		return DialectAnimation, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
	}
}

// Placement hint in terminal cells, sent with the create block.
const (
	placementCols = 30
	placementRows = 10
)

func moreFlag(more bool) int {
	if more {
		return 1
	}
	return 0
}

// firstControl returns the control data of the first chunk of a frame.
func (d Dialect) firstControl(s *Session, width, height int, more bool) string {
	m := moreFlag(more)

	if s.Frame == 0 {
		return fmt.Sprintf("a=T,i=%d,f=24,s=%d,v=%d,q=2,c=%d,r=%d,m=%d",
			s.ID, width, height, placementCols, placementRows, m)
	}

	switch d {
	case DialectAnimation:
		return fmt.Sprintf("a=f,i=%d,s=%d,v=%d,f=24,q=2,m=%d", s.ID, width, height, m)
	default:
		return fmt.Sprintf("a=f,r=1,i=%d,x=0,y=0,s=%d,v=%d,f=24,q=2,m=%d", s.ID, width, height, m)
	}
}

// continuationControl returns the control data of every chunk but the first.
func continuationControl(more bool) string {
	return fmt.Sprintf("m=%d", moreFlag(more))
}

// trailer returns the control data of the block that follows the last
// chunk, or "" when the dialect needs none.
func (d Dialect) trailer(s *Session) string {
	if d == DialectAnimation && s.Frame > 0 {
		return fmt.Sprintf("a=a,i=%d", s.ID)
	}
	return ""
}
