package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrStore        = errors.New("record store failed")
	ErrInvalidLimit = errors.New("invalid record limit")
)
