package event

// Type represents the type of input event
type Type int

const (
	Press   Type = iota // Key pressed down
	Release             // Key released
	Quit                // Quit requested (ESC, signal, frame limit)
)

func (t Type) String() string {
	switch t {
	case Press:
		return "press"
	case Release:
		return "release"
	case Quit:
		return "quit"
	default:
		return "unknown"
	}
}
