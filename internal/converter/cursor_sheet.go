package converter

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"
)

// SheetCursor reads the rows of one worksheet as text cells.
// Rows shorter than the sheet's used range are padded with empty cells.
type SheetCursor struct {
	rows  *excelize.Rows
	width int
	cur   []string
	err   error
}

// NewSheetCursor opens sheet (the first sheet when empty). With header set the
// first row is taken as column names and not returned.
func NewSheetCursor(f *excelize.File, sheet string, header bool) (*SheetCursor, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "look up sheet %q", sheet)
	}
	if idx == -1 {
		return nil, errors.WithHintf(errors.Newf("sheet %q not found", sheet),
			"available sheets: %s", strings.Join(f.GetSheetList(), ", "))
	}

	width := 0
	if dim, err := f.GetSheetDimension(sheet); err == nil {
		width = dimensionWidth(dim)
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheet)
	}

	c := &SheetCursor{rows: rows, width: width}
	if header && rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "read header row")
		}
		if len(cols) > c.width {
			c.width = len(cols)
		}
	}
	return c, nil
}

// dimensionWidth returns the column count of a range such as "A1:D20".
func dimensionWidth(dim string) int {
	parts := strings.Split(dim, ":")
	// Rows always starts at column A, so only the last column matters.
	col, _, err := excelize.CellNameToCoordinates(parts[len(parts)-1])
	if err != nil {
		return 0
	}
	return col
}

func (c *SheetCursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}
	cols, err := c.rows.Columns()
	if err != nil {
		c.err = err
		return false
	}
	c.cur = cols
	return true
}

func (c *SheetCursor) Values() ([]any, error) {
	n := max(len(c.cur), c.width)
	out := make([]any, n)
	for i, v := range c.cur {
		if v != "" {
			out[i] = v
		}
	}
	return out, nil
}

func (c *SheetCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Error()
}

func (c *SheetCursor) Close() error { return c.rows.Close() }
