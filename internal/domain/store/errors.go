package store

import "errors"

var (
	// ErrStoreNotFound indicates the store doesn't exist.
	ErrStoreNotFound = errors.New("store not found")
	// ErrStoreExists indicates the ID or code is already taken.
	ErrStoreExists = errors.New("store already exists")
	// ErrInvalidInput indicates invalid store input.
	ErrInvalidInput = errors.New("invalid store input")
)
