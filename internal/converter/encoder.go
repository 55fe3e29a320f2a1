package converter

import (
	"io"
	"strings"

	"github.com/nconklindev/csvmaker/internal/types"
)

// Encoder writes rows as comma-separated lines.
//
// Field values are not escaped. With a qualifier every field, empty or not,
// is wrapped in it; a field that itself contains a comma, the qualifier or a
// line break is written as is.
type Encoder struct {
	w    io.Writer
	opts types.Options
	buf  strings.Builder
}

func NewEncoder(w io.Writer, opts types.Options) *Encoder {
	if opts.LineTerminator == "" {
		opts.LineTerminator = "\n"
	}
	return &Encoder{w: w, opts: opts}
}

// Encode writes one row followed by the line terminator.
func (e *Encoder) Encode(row types.Row) error {
	e.buf.Reset()
	writeRow(&e.buf, row, e.opts.Qualifier)
	e.buf.WriteString(e.opts.LineTerminator)
	_, err := io.WriteString(e.w, e.buf.String())
	return err
}

// EncodeRow renders a row without a line terminator.
func EncodeRow(row types.Row, qualifier string) string {
	var b strings.Builder
	writeRow(&b, row, qualifier)
	return b.String()
}

func writeRow(b *strings.Builder, row types.Row, qualifier string) {
	for i, f := range row {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(qualifier)
		b.WriteString(f)
		b.WriteString(qualifier)
	}
}
