package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a write violates a uniqueness constraint,
	// including the at-most-one-active-assignment indexes.
	ErrDuplicate = errors.New("duplicate entity")

	// ErrVersionConflict is returned when an optimistic update finds the
	// stored version changed since the record was read.
	ErrVersionConflict = errors.New("version conflict")
)
