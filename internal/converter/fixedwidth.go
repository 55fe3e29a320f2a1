package converter

import (
	"bufio"
	"io"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/nconklindev/csvmaker/internal/types"
)

// FixedWidthSource slices a character stream into rows of fixed field widths.
// Widths count characters, not bytes, and line breaks are ordinary characters:
// a record ending in "\r\n" needs those two characters inside its widths.
type FixedWidthSource struct {
	r      *bufio.Reader
	widths types.FieldWidths
	strict bool
	line   int
	done   bool
}

// NewFixedWidthSource returns a source reading records of the given widths.
// In strict mode a final record that ends before its last field is filled is a
// StreamTruncation error; otherwise the partial record is emitted as read.
func NewFixedWidthSource(r io.Reader, widths types.FieldWidths, strict bool) (*FixedWidthSource, error) {
	if err := checkWidths(widths); err != nil {
		return nil, err
	}
	return &FixedWidthSource{
		r:      bufio.NewReader(r),
		widths: widths,
		strict: strict,
	}, nil
}

func checkWidths(widths types.FieldWidths) error {
	if len(widths) == 0 {
		return errors.WithHint(ErrInvalidWidths, "enter field lengths separated by commas (e.g. 15,31,24)")
	}
	for _, w := range widths {
		if w <= 0 {
			return errors.Wrapf(ErrInvalidWidths, "width %d", w)
		}
	}
	return nil
}

func (s *FixedWidthSource) Next() (types.Row, error) {
	if s.done {
		return nil, io.EOF
	}

	row := make(types.Row, 0, len(s.widths))
	var consumed strings.Builder

	for i, w := range s.widths {
		field, n, err := s.readField(w)
		if err != nil {
			return nil, err
		}
		consumed.WriteString(field)

		if n < w {
			s.done = true
			if consumed.Len() == 0 || strings.Trim(consumed.String(), "\r\n") == "" {
				return nil, io.EOF
			}
			// Every field but the last was filled and the last is empty:
			// the final record only lacks its line terminator.
			if n == 0 && i > 0 && i == len(s.widths)-1 {
				s.line++
				return append(row, ""), nil
			}
			if s.strict {
				return nil, &RecordError{
					Kind:  types.KindTruncation,
					Line:  s.line + 1,
					Field: i + 1,
					Err: errors.WithHint(ErrStreamTruncated,
						"check that the field lengths are correct for this file"),
				}
			}
			row = append(row, blankLineBreak(field))
			for len(row) < len(s.widths) {
				row = append(row, "")
			}
			s.line++
			return row, nil
		}

		row = append(row, blankLineBreak(field))
	}

	s.line++
	return row, nil
}

// readField reads up to w characters, returning fewer only at end of stream.
func (s *FixedWidthSource) readField(w int) (string, int, error) {
	var b strings.Builder
	n := 0
	for n < w {
		r, _, err := s.r.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", n, errors.Wrap(err, "read fixed-width field")
		}
		b.WriteRune(r)
		n++
	}
	return b.String(), n, nil
}

// blankLineBreak clears a field that captured only a CRLF terminator, then trims it.
func blankLineBreak(field string) string {
	if field == "\r\n" {
		return ""
	}
	return strings.TrimSpace(field)
}

// Line returns the number of records read so far.
func (s *FixedWidthSource) Line() int {
	return s.line
}
