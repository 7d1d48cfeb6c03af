// internal/driver/escpos/encoder.go
package escpos

// Encode converts printable text to the bytes sent to the printer. Text is
// always UTF-8, independent of the host locale.
func Encode(text string) []byte {
	return []byte(text)
}

// AppendText appends the encoded text to buf
func AppendText(buf []byte, text string) []byte {
	return append(buf, Encode(text)...)
}

// AppendCommand appends one or more commands to buf
func AppendCommand(buf []byte, cmds ...Command) []byte {
	for _, cmd := range cmds {
		buf = append(buf, cmd...)
	}
	return buf
}
