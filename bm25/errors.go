package bm25

import "errors"

var (
	// ErrInvalidParameter indicates an out-of-range tuning parameter.
	ErrInvalidParameter = errors.New("invalid bm25 parameter")
)
