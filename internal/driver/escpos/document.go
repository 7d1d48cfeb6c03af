// internal/driver/escpos/document.go
package escpos

import (
	"strings"
)

// Document accumulates an ESC/POS byte stream. It also keeps a plain text
// shadow of the printed lines for previews.
type Document struct {
	buf     []byte
	lines   []string
	pending strings.Builder
}

// NewDocument creates an empty document
func NewDocument() *Document {
	return &Document{}
}

// Init appends the printer reset command
func (d *Document) Init() *Document {
	return d.Command(Initialize)
}

// Command appends raw commands
func (d *Document) Command(cmds ...Command) *Document {
	d.buf = AppendCommand(d.buf, cmds...)
	return d
}

// Align sets text alignment
func (d *Document) Align(a Alignment) *Document {
	return d.Command(AlignCommand(a))
}

// Bold enables or disables emphasis
func (d *Document) Bold(on bool) *Document {
	return d.Command(BoldCommand(on))
}

// Scale sets the character size
func (d *Document) Scale(s TextScale) *Document {
	return d.Command(ScaleCommand(s))
}

// Write appends text without a line feed
func (d *Document) Write(text string) *Document {
	d.buf = AppendText(d.buf, text)
	d.pending.WriteString(text)
	return d
}

// Text appends a line of text followed by a line feed
func (d *Document) Text(text string) *Document {
	return d.Write(text).LineFeed()
}

// LineFeed ends the current line
func (d *Document) LineFeed() *Document {
	d.buf = AppendCommand(d.buf, LineFeed)
	d.lines = append(d.lines, d.pending.String())
	d.pending.Reset()
	return d
}

// Feed appends n line feeds
func (d *Document) Feed(n int) *Document {
	for i := 0; i < n; i++ {
		d.LineFeed()
	}
	return d
}

// Cut appends the full paper cut command
func (d *Document) Cut() *Document {
	return d.Command(CutFull)
}

// Bytes returns the accumulated byte stream
func (d *Document) Bytes() []byte {
	return append([]byte(nil), d.buf...)
}

// Lines returns the printed text lines without control sequences
func (d *Document) Lines() []string {
	lines := append([]string(nil), d.lines...)
	if d.pending.Len() > 0 {
		lines = append(lines, d.pending.String())
	}
	return lines
}

// Len returns the byte length of the stream
func (d *Document) Len() int {
	return len(d.buf)
}
