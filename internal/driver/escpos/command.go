// internal/driver/escpos/command.go
package escpos

// Command is an ESC/POS control sequence. Commands are string constants so the
// table cannot be modified at runtime.
type Command string

// ESC/POS command set understood by the 58mm Bluetooth thermal printers the
// receipts are tuned for. Byte values are part of the printer protocol.
const (
	// Basic commands
	Initialize Command = "\x1b\x40" // ESC @

	// Text alignment
	AlignLeft   Command = "\x1b\x61\x00" // ESC a 0
	AlignCenter Command = "\x1b\x61\x01" // ESC a 1
	AlignRight  Command = "\x1b\x61\x02" // ESC a 2

	// Text formatting
	BoldOn  Command = "\x1b\x45\x01" // ESC E 1
	BoldOff Command = "\x1b\x45\x00" // ESC E 0

	// Text size
	TextNormal       Command = "\x1d\x21\x00" // GS ! 0
	TextDoubleHeight Command = "\x1d\x21\x01" // GS ! 1
	TextDoubleWidth  Command = "\x1d\x21\x10" // GS ! 16
	TextDoubleBoth   Command = "\x1d\x21\x11" // GS ! 17

	// Paper handling
	LineFeed Command = "\x0a" // LF

	// Cutting
	CutFull Command = "\x1d\x56\x00" // GS V 0
)

// Alignment selects the justification used by AlignCommand.
type Alignment int

const (
	Left Alignment = iota
	Center
	Right
)

// TextScale selects the character magnification used by ScaleCommand.
type TextScale int

const (
	ScaleNormal TextScale = iota
	ScaleDoubleHeight
	ScaleDoubleWidth
	ScaleDoubleBoth
)

// Bytes returns a fresh copy of the command bytes
func (c Command) Bytes() []byte {
	return []byte(c)
}

// AlignCommand returns the alignment command for a
func AlignCommand(a Alignment) Command {
	switch a {
	case Center:
		return AlignCenter
	case Right:
		return AlignRight
	default:
		return AlignLeft
	}
}

// BoldCommand returns the emphasis command for the given state
func BoldCommand(on bool) Command {
	if on {
		return BoldOn
	}
	return BoldOff
}

// ScaleCommand returns the character size command for s
func ScaleCommand(s TextScale) Command {
	switch s {
	case ScaleDoubleHeight:
		return TextDoubleHeight
	case ScaleDoubleWidth:
		return TextDoubleWidth
	case ScaleDoubleBoth:
		return TextDoubleBoth
	default:
		return TextNormal
	}
}
