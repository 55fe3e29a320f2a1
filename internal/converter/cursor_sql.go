package converter

import (
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
)

// SQLCursor adapts *sql.Rows to Cursor.
type SQLCursor struct {
	rows *sql.Rows
	dest []any
	ptrs []any
}

func NewSQLCursor(rows *sql.Rows) (*SQLCursor, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "read result columns")
	}

	c := &SQLCursor{
		rows: rows,
		dest: make([]any, len(cols)),
		ptrs: make([]any, len(cols)),
	}
	for i := range c.dest {
		c.ptrs[i] = &c.dest[i]
	}
	return c, nil
}

func (c *SQLCursor) Next() bool { return c.rows.Next() }

func (c *SQLCursor) Values() ([]any, error) {
	if err := c.rows.Scan(c.ptrs...); err != nil {
		return nil, err
	}
	out := make([]any, len(c.dest))
	for i, v := range c.dest {
		if b, ok := v.([]byte); ok {
			v = append([]byte(nil), b...)
		}
		out[i] = v
	}
	return out, nil
}

func (c *SQLCursor) Err() error { return c.rows.Err() }

func (c *SQLCursor) Close() error { return c.rows.Close() }

// PgxCursor adapts pgx.Rows to Cursor.
type PgxCursor struct {
	rows pgx.Rows
}

func NewPgxCursor(rows pgx.Rows) *PgxCursor {
	return &PgxCursor{rows: rows}
}

func (c *PgxCursor) Next() bool { return c.rows.Next() }

func (c *PgxCursor) Values() ([]any, error) { return c.rows.Values() }

func (c *PgxCursor) Err() error { return c.rows.Err() }

func (c *PgxCursor) Close() error {
	c.rows.Close()
	return c.rows.Err()
}
