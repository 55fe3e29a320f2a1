package types

import (
	"fmt"
	"strings"
)

// Row is one record's fields in source order.
type Row []string

// Trimmed returns a copy of the row with surrounding whitespace removed from every field.
func (r Row) Trimmed() Row {
	out := make(Row, len(r))
	for i, f := range r {
		out[i] = strings.TrimSpace(f)
	}
	return out
}

// FieldWidths lists the character width of each field in a fixed-width record.
type FieldWidths []int

// Total returns the number of characters in one record.
func (w FieldWidths) Total() int {
	total := 0
	for _, n := range w {
		total += n
	}
	return total
}

type Format int

const (
	FormatDelimited Format = iota
	FormatFixedWidth
	FormatTabular
)

func (f Format) String() string {
	switch f {
	case FormatDelimited:
		return "delimited"
	case FormatFixedWidth:
		return "fixed-width"
	case FormatTabular:
		return "tabular"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "delimited", "delim", "text":
		return FormatDelimited, nil
	case "fixed-width", "fixed", "fixedwidth":
		return FormatFixedWidth, nil
	case "tabular", "excel", "xlsx", "sheet", "query":
		return FormatTabular, nil
	}
	return 0, fmt.Errorf("unknown format %q (want delimited, fixed-width or tabular)", s)
}

// Options controls how rows are written.
type Options struct {
	// Qualifier wraps every output field when non-empty.
	Qualifier string
	// LineTerminator ends each output record. Empty means "\n".
	LineTerminator string
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// FailureKind classifies why a conversion failed.
type FailureKind string

const (
	KindNone            FailureKind = ""
	KindSchemaMismatch  FailureKind = "schema_mismatch"
	KindTruncation      FailureKind = "stream_truncation"
	KindMalformedRecord FailureKind = "malformed_record"
	KindSourceAccess    FailureKind = "source_access"
	KindResource        FailureKind = "resource"
	KindCanceled        FailureKind = "canceled"
)

// ConversionResult is the outcome of converting one input.
type ConversionResult struct {
	InputFile   string      `yaml:"input"`
	OutputFile  string      `yaml:"output,omitempty"`
	Status      Status      `yaml:"status"`
	Kind        FailureKind `yaml:"kind,omitempty"`
	Message     string      `yaml:"message,omitempty"`
	LineNumber  int         `yaml:"line,omitempty"`
	RowsWritten int         `yaml:"rows"`
	Err         error       `yaml:"-"`
}

// Success builds a successful result.
func Success(input, output string, rows int) ConversionResult {
	return ConversionResult{
		InputFile:   input,
		OutputFile:  output,
		Status:      StatusSuccess,
		RowsWritten: rows,
	}
}

// Failure builds a failed result. line is 0 when the failure is not record-scoped.
func Failure(input string, kind FailureKind, line int, err error) ConversionResult {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return ConversionResult{
		InputFile:  input,
		Status:     StatusFailure,
		Kind:       kind,
		Message:    msg,
		LineNumber: line,
		Err:        err,
	}
}

func (r ConversionResult) OK() bool {
	return r.Status == StatusSuccess
}

// Summary renders the result as a single status line.
func (r ConversionResult) Summary() string {
	if r.OK() {
		return "Done!"
	}
	if r.LineNumber > 0 {
		return fmt.Sprintf("Error on line %d: %s", r.LineNumber, r.Message)
	}
	return "Error: " + r.Message
}
