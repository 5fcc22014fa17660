// Package store holds the SQL for every table. Functions take a DBTX so the
// same code runs standalone or inside a caller's transaction, and return
// (nil, nil) when a single row is not found.
package store

import (
	"context"
	"database/sql"
	"strings"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Filter narrows list queries. Zero values place no restriction.
type Filter struct {
	BaseID    *int64
	OwnerID   *int64
	AssetID   *int64
	Status    string
	StartDate string
	EndDate   string
}

// conditions accumulates a WHERE clause.
type conditions struct {
	clauses []string
	args    []any
}

func (c *conditions) add(clause string, args ...any) {
	c.clauses = append(c.clauses, clause)
	c.args = append(c.args, args...)
}

// dateRange adds inclusive bounds on a YYYY-MM-DD column.
func (c *conditions) dateRange(column, start, end string) {
	if start != "" {
		c.add(column+" >= ?", start)
	}
	if end != "" {
		c.add(column+" <= ?", end)
	}
}

func (c *conditions) String() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// affected returns whether a write touched at least one row.
func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
