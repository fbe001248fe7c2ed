package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/noah-isme/subnets-api/internal/observability"
)

// MaxUpdateAttempts bounds the read-modify-write retries performed by Update.
const MaxUpdateAttempts = 5

// GetJSON decodes the value stored at key into T.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, error) {
	var out T
	entry, err := s.Get(ctx, key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(entry.Value, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

// PutJSON encodes value and writes it unconditionally.
func PutJSON(ctx context.Context, s Store, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.Set(ctx, key, payload)
	return err
}

// CreateJSON writes value only if key does not exist yet. It returns ErrVersionConflict otherwise.
func CreateJSON(ctx context.Context, s Store, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.CompareAndSwap(ctx, key, payload, 0)
	return err
}

// ScanJSON decodes every entry under prefix. Entries that cannot be decoded are skipped.
func ScanJSON[T any](ctx context.Context, s Store, prefix string) ([]T, error) {
	entries, err := s.ScanPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(entries))
	for _, entry := range entries {
		var item T
		if err := json.Unmarshal(entry.Value, &item); err != nil {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// Update performs an optimistic read-modify-write of the value at key.
//
// fn receives the current value (zero value when missing) and whether it existed.
// Returning an error from fn aborts the update and that error is returned unchanged.
// Concurrent writers are detected through the entry version; the cycle is retried
// up to MaxUpdateAttempts times before ErrVersionConflict is returned.
func Update[T any](ctx context.Context, s Store, key string, fn func(current *T, exists bool) error) (T, error) {
	var zero T

	for attempt := 0; attempt < MaxUpdateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		var (
			current T
			version int64
			exists  bool
		)

		entry, err := s.Get(ctx, key)
		switch {
		case err == nil:
			if err := json.Unmarshal(entry.Value, &current); err != nil {
				return zero, fmt.Errorf("decode %s: %w", key, err)
			}
			version = entry.Version
			exists = true
		case errors.Is(err, ErrNotFound):
		default:
			return zero, err
		}

		if err := fn(&current, exists); err != nil {
			return zero, err
		}

		payload, err := json.Marshal(current)
		if err != nil {
			return zero, fmt.Errorf("encode %s: %w", key, err)
		}

		if _, err := s.CompareAndSwap(ctx, key, payload, version); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				observability.StoreConflicts().WithLabelValues(KeyPrefix(key)).Inc()
				continue
			}
			return zero, err
		}

		return current, nil
	}

	return zero, fmt.Errorf("update %s after %d attempts: %w", key, MaxUpdateAttempts, ErrVersionConflict)
}
