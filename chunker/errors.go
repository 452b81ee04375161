package chunker

import "errors"

var (
	// ErrInvalidConfig indicates inconsistent splitting parameters.
	ErrInvalidConfig = errors.New("invalid chunker configuration")
)
