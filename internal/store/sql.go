package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const createBlobsTable = `
	CREATE TABLE IF NOT EXISTS kv_blobs (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLStore keeps blobs in a single kv_blobs table (postgres or sqlite)
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore connects to the database and ensures the blob table exists.
// driver is "postgres" or "sqlite".
func NewSQLStore(driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// a single writer avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(createBlobsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv_blobs table: %w", err)
	}

	return &SQLStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *SQLStore) GetDB() *sqlx.DB {
	return s.db
}

// Get retrieves the blob stored under key
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, s.db.Rebind("SELECT value FROM kv_blobs WHERE key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

// Set upserts the blob stored under key
func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	query := s.db.Rebind(`
		INSERT INTO kv_blobs (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`)

	_, err := s.db.ExecContext(ctx, query, key, string(value))
	return err
}

// Delete removes the blob stored under key
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM kv_blobs WHERE key = ?"), key)
	return err
}
