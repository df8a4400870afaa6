package store

import "errors"

var (
	// ErrNotInitialized is returned when an operation runs before Open
	// completes or after Close.
	ErrNotInitialized = errors.New("lattice: store not initialized")

	// ErrInit is returned when schema bootstrap or table acquisition fails.
	ErrInit = errors.New("lattice: store initialization failed")

	// ErrNotFound is returned by Get when no row exists for the key.
	ErrNotFound = errors.New("lattice: key not found")

	// ErrKeyTooLarge is returned when a key exceeds Config.KeySize.
	ErrKeyTooLarge = errors.New("lattice: key exceeds configured maximum size")

	// ErrValueTooLarge is returned when a value exceeds Config.ValueSize.
	ErrValueTooLarge = errors.New("lattice: value exceeds configured maximum size")

	// ErrBackend is returned when a statement still fails after the retry
	// bound is exhausted. The failing attempt's error is wrapped.
	ErrBackend = errors.New("lattice: backend statement failed")

	// ErrInvalidRange is returned when a Range sets both the exclusive and
	// inclusive form of the same bound.
	ErrInvalidRange = errors.New("lattice: range sets conflicting bounds")
)
