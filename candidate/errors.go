package candidate

import "errors"

// ErrInvalidInput is returned for caller-input errors: a non-positive
// sampling range, rate or distance, an empty candidate set, or a non-finite
// target. These are never corrected silently and never retried; all
// functions here are deterministic.
var ErrInvalidInput = errors.New("invalid input")
