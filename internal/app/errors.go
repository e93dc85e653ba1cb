package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidPath    = errors.New("invalid document path")
	ErrInvalidSubtask = errors.New("invalid subtask index")
)
