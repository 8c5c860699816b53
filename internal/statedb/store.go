package statedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite" // SQLite driver registration
)

// Keys the target application reads its signed-in identity from.
const (
	LegacyStateKey  = "jetskiStateSync.agentManagerInitState"
	UnifiedTokenKey = "antigravityUnifiedStateSync.oauthToken"
	OnboardingKey   = "antigravityOnboarding"
)

// busyTimeoutMillis lets writes wait for the running application to release its lock.
const busyTimeoutMillis = 5000

// ErrKeyNotFound is returned when a key doesn't exist in ItemTable.
var ErrKeyNotFound = errors.New("key not found")

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store gives key/value access to a VS Code style state database
// (a single ItemTable(key, value) table).
type Store struct {
	db   *sql.DB
	path string
}

// Open opens an existing state database. It never creates one: a missing
// file means the target application was not found.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("state database %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_pragma=busy_timeout(%d)", path, busyTimeoutMillis))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	return get(ctx, s.db, key)
}

// Update replaces the value of an existing key.
func (s *Store) Update(ctx context.Context, key, value string) error {
	return update(ctx, s.db, key, value)
}

// Put inserts or replaces key.
func (s *Store) Put(ctx context.Context, key, value string) error {
	return put(ctx, s.db, key, value)
}

func get(ctx context.Context, q querier, key string) (string, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM ItemTable WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

func update(ctx context.Context, q querier, key, value string) error {
	res, err := q.ExecContext(ctx, `UPDATE ItemTable SET value = ? WHERE key = ?`, value, key)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: update of %s affected no rows", ErrKeyNotFound, key)
	}
	return nil
}

func put(ctx context.Context, q querier, key, value string) error {
	_, err := q.ExecContext(ctx, `INSERT OR REPLACE INTO ItemTable (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}
