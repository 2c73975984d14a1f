package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/identity/internal/identity/store"
)

type txStore struct {
	tx *sql.Tx
	q  *queries
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{
		tx: tx,
		q:  &queries{db: tx},
	}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // outer DB stays open

// Ping is a no-op, the transaction already holds a live connection.
func (t *txStore) Ping(ctx context.Context) error {
	return nil
}

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Accounts() store.Accounts { return &accountsRepo{q: t.q} }
func (t *txStore) WithdrawalHistories() store.WithdrawalHistories {
	return &withdrawalsRepo{q: t.q}
}

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx
