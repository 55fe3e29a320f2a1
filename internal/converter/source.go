package converter

import "github.com/nconklindev/csvmaker/internal/types"

// RowSource yields rows one at a time. Next returns io.EOF after the last row.
type RowSource interface {
	Next() (types.Row, error)
}

// Source pairs a row stream with the format that produced it.
type Source struct {
	Format types.Format
	Rows   RowSource
	// Name identifies the input in results, usually its path.
	Name string
}
