package service

import (
	"errors"
	"fmt"
)

var (
	ErrMovieNotFound  = errors.New("movie not found")
	ErrDuplicateTitle = errors.New("a movie with this title is already in your list")
	ErrInvalidInput   = errors.New("invalid input")
)

// ExternalServiceError wraps a failed call to the metadata source.
type ExternalServiceError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *ExternalServiceError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("metadata service timed out during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("metadata service failed during %s: %v", e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
