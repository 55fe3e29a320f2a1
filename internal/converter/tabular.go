package converter

import (
	"database/sql/driver"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/nconklindev/csvmaker/internal/types"
)

// Cursor is a query result positioned before its first record.
// A nil value in Values is an empty cell.
type Cursor interface {
	Next() bool
	Values() ([]any, error)
	Err() error
	Close() error
}

// TabularSource turns query result records into rows, preserving column order.
type TabularSource struct {
	c    Cursor
	line int
}

func NewTabularSource(c Cursor) *TabularSource {
	return &TabularSource{c: c}
}

func (s *TabularSource) Next() (types.Row, error) {
	if !s.c.Next() {
		if err := s.c.Err(); err != nil {
			return nil, &SourceError{Err: errors.Wrap(err, "read query result")}
		}
		return nil, io.EOF
	}

	vals, err := s.c.Values()
	if err != nil {
		return nil, &SourceError{Err: errors.Wrap(err, "read record values")}
	}
	s.line++

	row := make(types.Row, len(vals))
	for i, v := range vals {
		row[i] = strings.TrimSpace(CellText(v))
	}
	return row, nil
}

// CellText renders a cell value as text. Nil renders as the empty string.
func CellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case time.Time:
		return val.Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	case driver.Valuer:
		dv, err := val.Value()
		if err != nil || dv == nil {
			return ""
		}
		return CellText(dv)
	}
	return fmt.Sprint(v)
}
