package input

// C64 keyboard matrix codes for keys without an ASCII equivalent. Printable
// characters use their ASCII code.
const (
	KeyDel      = 0x01
	KeyClr      = 0x02
	KeyStop     = 0x05
	KeyCsrLeft  = 0x08
	KeyCsrRight = 0x09
	KeyCsrDown  = 0x0A
	KeyCsrUp    = 0x0B
	KeyHome     = 0x0C
	KeyReturn   = 0x0D
	KeyCtrl     = 0x0E
	KeyCBM      = 0x0F
	KeyInst     = 0x10
	KeySpace    = 0x20
)

// Host terminal bytes.
const (
	byteEscape    = 27
	byteBackspace = 8
	byteDelete    = 127
)
