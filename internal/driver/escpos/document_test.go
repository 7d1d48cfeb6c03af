package escpos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandBytes(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want []byte
	}{
		{"initialize", Initialize, []byte{0x1B, 0x40}},
		{"align left", AlignLeft, []byte{0x1B, 0x61, 0x00}},
		{"align center", AlignCenter, []byte{0x1B, 0x61, 0x01}},
		{"align right", AlignRight, []byte{0x1B, 0x61, 0x02}},
		{"bold on", BoldOn, []byte{0x1B, 0x45, 0x01}},
		{"bold off", BoldOff, []byte{0x1B, 0x45, 0x00}},
		{"normal size", TextNormal, []byte{0x1D, 0x21, 0x00}},
		{"double height", TextDoubleHeight, []byte{0x1D, 0x21, 0x01}},
		{"double width", TextDoubleWidth, []byte{0x1D, 0x21, 0x10}},
		{"double both", TextDoubleBoth, []byte{0x1D, 0x21, 0x11}},
		{"line feed", LineFeed, []byte{0x0A}},
		{"full cut", CutFull, []byte{0x1D, 0x56, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.Bytes())
		})
	}
}

func TestEncode(t *testing.T) {
	assert.Empty(t, Encode(""))
	assert.Equal(t, []byte("Rp1.000"), Encode("Rp1.000"))
	assert.Equal(t, []byte{0xC3, 0xA9}, Encode("é"))
}

func TestAppendCommandAndText(t *testing.T) {
	buf := AppendCommand(nil, Initialize, BoldOn)
	buf = AppendText(buf, "TOTAL")
	buf = AppendCommand(buf, LineFeed)

	assert.Equal(t, []byte{0x1B, 0x40, 0x1B, 0x45, 0x01, 'T', 'O', 'T', 'A', 'L', 0x0A}, buf)
	assert.Equal(t, buf, NewDocument().Init().Bold(true).Text("TOTAL").Bytes())
}

func TestDocument(t *testing.T) {
	doc := NewDocument().
		Init().
		Align(Center).
		Bold(true).
		Text("HELLO").
		Bold(false).
		Write("tail")

	want := []byte{0x1B, 0x40, 0x1B, 0x61, 0x01, 0x1B, 0x45, 0x01}
	want = append(want, "HELLO"...)
	want = append(want, 0x0A, 0x1B, 0x45, 0x00)
	want = append(want, "tail"...)

	assert.Equal(t, want, doc.Bytes())
	assert.Equal(t, len(want), doc.Len())
	assert.Equal(t, []string{"HELLO", "tail"}, doc.Lines())
}

func TestDocument_FeedAndCut(t *testing.T) {
	doc := NewDocument().Feed(2).Cut()

	assert.Equal(t, []byte{0x0A, 0x0A, 0x1D, 0x56, 0x00}, doc.Bytes())
	assert.Equal(t, []string{"", ""}, doc.Lines())
}
