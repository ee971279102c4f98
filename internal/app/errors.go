package service

import "errors"

// Sentinel errors returned by Service methods.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrInvalidInput = errors.New("invalid session input")
)
