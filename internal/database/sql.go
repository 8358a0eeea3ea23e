package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type sqlQueries struct {
	read  string
	write string
}

var dialects = map[string]sqlQueries{
	DriverPostgres: {
		read: `SELECT body FROM documents WHERE collection = $1`,
		write: `
			INSERT INTO documents (collection, body, updated_at)
			VALUES ($1, $2, CURRENT_TIMESTAMP)
			ON CONFLICT (collection) DO UPDATE
			SET body = EXCLUDED.body,
			    updated_at = EXCLUDED.updated_at`,
	},
	DriverSQLite: {
		read: `SELECT body FROM documents WHERE collection = ?`,
		write: `
			INSERT INTO documents (collection, body, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(collection) DO UPDATE
			SET body = excluded.body,
			    updated_at = excluded.updated_at`,
	},
}

// SQLBackend stores each collection as one row of the documents table.
type SQLBackend struct {
	db      *sqlx.DB
	queries sqlQueries
}

func NewSQLBackend(db *sqlx.DB) (*SQLBackend, error) {
	q, ok := dialects[db.DriverName()]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q", db.DriverName())
	}
	return &SQLBackend{db: db, queries: q}, nil
}

func (b *SQLBackend) Read(ctx context.Context, c Collection) ([]byte, error) {
	var body string
	err := b.db.GetContext(ctx, &body, b.queries.read, string(c))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCollectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", c, err)
	}
	return []byte(body), nil
}

func (b *SQLBackend) Write(ctx context.Context, c Collection, data []byte) error {
	return WithTransaction(ctx, b.db, DefaultTxOptions(), func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, b.queries.write, string(c), string(data)); err != nil {
			return fmt.Errorf("write document %s: %w", c, err)
		}
		return nil
	})
}

func (b *SQLBackend) Close() error {
	return b.db.Close()
}
