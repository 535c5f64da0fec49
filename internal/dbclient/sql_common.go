package dbclient

import (
	"database/sql"
	"fmt"
)

// rowCursor streams a result set one row at a time.
type rowCursor struct {
	rows  *sql.Rows
	width int
}

func (c *rowCursor) Next() bool { return c.rows.Next() }

// Scan returns raw driver values; conversion to JSON happens in etl.
func (c *rowCursor) Scan() ([]any, error) {
	values := make([]any, c.width)
	ptrs := make([]any, c.width)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}
	return values, nil
}

func (c *rowCursor) Err() error { return c.rows.Err() }

func (c *rowCursor) Close() error { return c.rows.Close() }
