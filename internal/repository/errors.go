package repository

import "errors"

// ErrNotFound indicates that the requested record does not exist
var ErrNotFound = errors.New("record not found")

// IsNotFoundError checks if an error indicates a missing record
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
