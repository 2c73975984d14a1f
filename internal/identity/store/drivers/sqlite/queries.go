package sqlite

import (
	"context"
	"database/sql"
	"errors"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so repositories run
// unchanged inside and outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db dbtx
}

// execAffected runs a write and returns the number of rows it touched.
func (q *queries) execAffected(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *queries) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
