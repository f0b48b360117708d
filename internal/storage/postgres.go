package storage

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/lib/pq" // Register the PostgreSQL driver with database/sql.
)

// Postgres keeps blobs in the library_kv table.
type Postgres struct {
	DB *sql.DB // Shared database connection pool
}

// NewPostgres opens a connection pool for dsn, pings it within ctx's
// deadline, and creates the library_kv table if it does not exist yet.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("storage: postgres backend requires a dsn")
	}
	// sql.Open only validates the DSN format; it does not actually connect yet.
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	query := `
        CREATE TABLE IF NOT EXISTS library_kv (
            key        TEXT PRIMARY KEY,
            value      TEXT NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`
	if _, err := db.ExecContext(ctx, query); err != nil {
		db.Close()
		return nil, err
	}
	return &Postgres{DB: db}, nil
}

// Get returns the value for key, or ErrNotFound.
func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := p.DB.QueryRowContext(ctx, `SELECT value FROM library_kv WHERE key = $1`, key).Scan(&value)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}
	return []byte(value), nil
}

// Put upserts value under key and refreshes updated_at.
func (p *Postgres) Put(ctx context.Context, key string, value []byte) error {
	query := `
        INSERT INTO library_kv (key, value) VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	_, err := p.DB.ExecContext(ctx, query, key, string(value))
	return err
}

// Delete removes key; a missing key is not an error.
func (p *Postgres) Delete(ctx context.Context, key string) error {
	_, err := p.DB.ExecContext(ctx, `DELETE FROM library_kv WHERE key = $1`, key)
	return err
}

func (p *Postgres) Close() error { return p.DB.Close() }
