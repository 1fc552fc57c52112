package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrBackpressure = errors.New("rescore queue full")
	ErrNotStarted   = errors.New("service not started")
)
