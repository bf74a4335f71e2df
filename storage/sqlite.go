package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pixelfan/pixelfan/errors"
)

// SQLiteKV implements KV over a single blobs table.
// It is the durable backing store for job documents, rate windows, and
// generated image metadata.
type SQLiteKV struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", path)
	}

	kv := NewSQLiteKV(db)
	if err := kv.InitSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return kv, nil
}

// NewSQLiteKV wraps an existing database handle without touching the schema.
// Useful for tests that inject a mock or share a connection.
func NewSQLiteKV(db *sql.DB) *SQLiteKV {
	return &SQLiteKV{db: db}
}

// InitSchema creates the blobs table if it does not exist.
func (s *SQLiteKV) InitSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS blobs (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`
	if _, err := s.db.Exec(query); err != nil {
		return errors.Wrap(err, "failed to create blobs table")
	}
	return nil
}

// Put stores value under key, overwriting any existing value.
func (s *SQLiteKV) Put(key string, value []byte) error {
	query := `
		INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, key, value, time.Now().UTC()); err != nil {
		err = errors.Wrap(err, "failed to put blob")
		err = errors.WithDetailf(err, "Key: %s", key)
		return err
	}
	return nil
}

// Get returns the value stored under key, or ErrNotFound.
func (s *SQLiteKV) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "%s", key)
	}
	if err != nil {
		err = errors.Wrap(err, "failed to get blob")
		err = errors.WithDetailf(err, "Key: %s", key)
		return nil, err
	}
	return value, nil
}

// ListPrefix returns all keys with the given prefix, in ascending order.
func (s *SQLiteKV) ListPrefix(prefix string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT key FROM blobs WHERE key >= ? AND key < ? ORDER BY key ASC`,
		prefix, prefix+"\xff",
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list blobs with prefix %s", prefix)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.Wrap(err, "failed to scan blob key")
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating blob keys")
	}
	return keys, nil
}

// Close closes the underlying database handle.
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}
