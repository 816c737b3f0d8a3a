package storage

import (
	"errors"
	"fmt"
)

// Common storage errors.
var (
	// ErrNotFound is returned when no record exists for a bib number.
	ErrNotFound = errors.New("runner not found")
	// ErrDuplicateBib is returned when inserting a bib number that already exists.
	ErrDuplicateBib = errors.New("bib number already exists")
	// ErrAlreadySet is returned when an update targets a time that is already recorded.
	ErrAlreadySet = errors.New("time already recorded")
	// ErrStorage marks failures of the underlying database.
	ErrStorage = errors.New("storage failure")
)

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
