package store

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when no entry exists for a key.
	ErrNotFound = errors.New("store: key not found")
	// ErrVersionConflict is returned when a compare-and-swap observes a newer version than expected.
	ErrVersionConflict = errors.New("store: version conflict")
)

// Entry is a stored value together with its optimistic concurrency version.
// Versions start at 1 for the first write and increase by one on every write.
type Entry struct {
	Key     string
	Value   []byte
	Version int64
}

// Store is the key-value persistence facade used by the repositories.
type Store interface {
	// Get returns the entry stored at key or ErrNotFound.
	Get(ctx context.Context, key string) (Entry, error)
	// Set writes value unconditionally and returns the new version.
	Set(ctx context.Context, key string, value []byte) (int64, error)
	// CompareAndSwap writes value only when the current version equals expected.
	// An expected version of 0 means the key must not exist yet.
	CompareAndSwap(ctx context.Context, key string, value []byte, expected int64) (int64, error)
	// ScanPrefix returns every entry whose key starts with prefix, ordered by key.
	ScanPrefix(ctx context.Context, prefix string) ([]Entry, error)
}

// KeyPrefix returns the portion of a key up to and including the first colon, used as a metric label.
func KeyPrefix(key string) string {
	if idx := strings.Index(key, ":"); idx >= 0 {
		return key[:idx+1]
	}
	return key
}
