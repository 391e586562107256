package store

import "errors"

// ErrNotFound is returned when something is not found in the store.
var ErrNotFound = errors.New("not found")

// ErrExists is returned when creating something that is already in the store.
var ErrExists = errors.New("already exists")
