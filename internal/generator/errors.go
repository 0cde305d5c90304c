package generator

import (
	"errors"
	"fmt"
)

// ErrMalformedStage marks a stage that was produced but failed validation,
// or was not produced at all.
var ErrMalformedStage = errors.New("malformed stage")

// GenerationError is the error carried out of stage and cycle generation.
type GenerationError struct {
	Op   string
	Role string
	Err  error
}

func (e *GenerationError) Error() string {
	if e.Role != "" {
		return fmt.Sprintf("%s (%s): %v", e.Op, e.Role, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// panicError converts a recovered value into an error.
func panicError(r interface{}) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
