package converter

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/nconklindev/csvmaker/internal/types"
)

// DelimitedSource splits single-character-delimited text into rows.
//
// Records follow RFC 4180 quoting with '"' as the quote: a quoted field may
// contain the delimiter and line breaks, and a doubled quote stands for one
// quote. Stray quotes inside unquoted fields are kept as data. Blank lines
// are skipped and do not count as records.
type DelimitedSource struct {
	r    *csv.Reader
	line int
}

// NewDelimitedSource returns a source reading records separated by delimiter.
func NewDelimitedSource(r io.Reader, delimiter rune) (*DelimitedSource, error) {
	if err := checkDelimiter(delimiter); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	return &DelimitedSource{r: cr}, nil
}

func checkDelimiter(d rune) error {
	switch d {
	case 0, '"', '\r', '\n', '\uFFFD':
		return errors.Newf("invalid delimiter %q", d)
	}
	return nil
}

// Next returns the next record with every field trimmed.
func (s *DelimitedSource) Next() (types.Row, error) {
	rec, err := s.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	s.line++
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, &RecordError{
				Kind: types.KindMalformedRecord,
				Line: s.line,
				Err:  errors.Wrapf(ErrMalformedRecord, "column %d: %v", perr.Column, perr.Err),
			}
		}
		return nil, errors.Wrap(err, "read delimited record")
	}

	row := make(types.Row, len(rec))
	for i, f := range rec {
		row[i] = strings.TrimSpace(f)
	}
	return row, nil
}

// Line returns the number of records read so far.
func (s *DelimitedSource) Line() int {
	return s.line
}

// SchemaValidator rejects any row whose field count differs from the first row's.
type SchemaValidator struct {
	src   RowSource
	width int
	line  int
}

func NewSchemaValidator(src RowSource) *SchemaValidator {
	return &SchemaValidator{src: src}
}

func (v *SchemaValidator) Next() (types.Row, error) {
	row, err := v.src.Next()
	if err != nil {
		return nil, err
	}
	v.line++

	if v.line == 1 {
		v.width = len(row)
		return row, nil
	}
	if len(row) != v.width {
		return nil, &RecordError{
			Kind: types.KindSchemaMismatch,
			Line: v.line,
			Err:  ErrSchemaMismatch,
		}
	}
	return row, nil
}

// Width returns the baseline field count, or 0 before the first row.
func (v *SchemaValidator) Width() int {
	return v.width
}
