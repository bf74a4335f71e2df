// Package storage provides the opaque key/value blob contract that job
// documents, rate windows, and generated images are persisted through,
// plus the concrete SQLite and in-memory implementations.
//
// The contract is deliberately minimal (put, get, list-by-prefix): every
// consumer performs whole-document reads and writes, and the consistency
// model is last write wins at the document level.
package storage

import (
	"github.com/pixelfan/pixelfan/errors"
)

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("key not found")

// KV is the opaque blob store contract.
// Implementations must be safe for concurrent use.
type KV interface {
	// Put stores value under key, overwriting any existing value.
	Put(key string, value []byte) error
	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)
	// ListPrefix returns all keys with the given prefix, in ascending order.
	ListPrefix(prefix string) ([]string, error)
}
