package converter

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/nconklindev/csvmaker/internal/types"
)

// MismatchMessage is reported when a delimited record's field count differs from the first record.
const MismatchMessage = "This line has a different number of fields than previous lines. Conversion cancelled."

var (
	ErrSchemaMismatch  = errors.New(MismatchMessage)
	ErrStreamTruncated = errors.New("record ends before all fields were read")
	ErrMalformedRecord = errors.New("record could not be parsed")
	ErrInvalidWidths   = errors.New("field widths must be positive whole numbers")
	ErrUnsupportedFile = errors.New("unsupported input file")
)

// RecordError is a failure tied to one record of the input.
type RecordError struct {
	Kind types.FailureKind
	// Line is the 1-based record number.
	Line int
	// Field is the 1-based field position, or 0 when the whole record is at fault.
	Field int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message())
}

// Message is the error text without the line prefix.
func (e *RecordError) Message() string {
	if e.Field > 0 {
		return fmt.Sprintf("%s (field %d)", e.Err.Error(), e.Field)
	}
	return e.Err.Error()
}

func (e *RecordError) Unwrap() error { return e.Err }

// SourceError marks a failure of the input source itself rather than of a record.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string { return e.Err.Error() }

func (e *SourceError) Unwrap() error { return e.Err }

// ResourceError marks a failure opening, writing or closing the output.
type ResourceError struct {
	Err error
}

func (e *ResourceError) Error() string { return e.Err.Error() }

func (e *ResourceError) Unwrap() error { return e.Err }

// failureFrom translates an error raised during conversion into a result.
func failureFrom(input string, err error) types.ConversionResult {
	var rec *RecordError
	if errors.As(err, &rec) {
		res := types.Failure(input, rec.Kind, rec.Line, err)
		res.Message = rec.Message()
		return res
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return types.Failure(input, types.KindCanceled, 0, err)
	}

	var res *ResourceError
	if errors.As(err, &res) {
		return types.Failure(input, types.KindResource, 0, err)
	}

	return types.Failure(input, types.KindSourceAccess, 0, err)
}
