package repository

import (
	"errors"

	"github.com/noah-isme/subnets-api/internal/store"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = store.ErrNotFound
	// ErrAlreadyExists is returned when creating a record whose key is taken.
	ErrAlreadyExists = errors.New("record already exists")
)

// createErr maps a failed create-if-absent write to ErrAlreadyExists.
func createErr(err error) error {
	if errors.Is(err, store.ErrVersionConflict) {
		return ErrAlreadyExists
	}
	return err
}
