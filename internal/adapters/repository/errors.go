package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("person not found")
	ErrInvalidLimit = errors.New("invalid queue limit")
)
