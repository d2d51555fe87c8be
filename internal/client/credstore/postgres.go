package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/vidyasetu/vidyasetu/internal/client/clienterr"
)

const credentialsSchema = `
CREATE TABLE IF NOT EXISTS credentials (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// PostgresStore keeps credentials in a single table.
type PostgresStore struct {
	// DB is the database handle for executing queries.
	DB   *sql.DB
	owns bool
}

// NewPostgres wraps an existing connection. The caller keeps ownership of db
// and must have applied the credentials schema.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

// OpenPostgres connects to dsn and ensures the credentials table exists.
func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(credentialsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create credentials schema: %w", err)
	}
	return &PostgresStore{DB: db, owns: true}, nil
}

// Get returns the value for key, or ok == false when no row exists.
func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, clienterr.Wrap(clienterr.KindStorage, "credstore.postgres.get", "select credential", err)
	}
	return value, true, nil
}

// Set upserts value under key.
func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO credentials (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, value)
	return clienterr.Wrap(clienterr.KindStorage, "credstore.postgres.set", "upsert credential", err)
}

// RemoveMany deletes keys with one statement, so either all rows go or none.
func (s *PostgresStore) RemoveMany(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.DB.ExecContext(ctx, `DELETE FROM credentials WHERE key = ANY($1)`, pq.Array(keys))
	return clienterr.Wrap(clienterr.KindStorage, "credstore.postgres.remove", "delete credentials", err)
}

// Close closes the connection if OpenPostgres created it.
func (s *PostgresStore) Close() error {
	if s.owns {
		return s.DB.Close()
	}
	return nil
}
