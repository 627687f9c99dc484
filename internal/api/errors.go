package api

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch matches every failure returned by the client.
	ErrFetch = errors.New("failed to load")
	// ErrNotFound is returned for ids outside the corpus or a 404.
	ErrNotFound = errors.New("not found")
	// ErrInvalidDetail is returned by ValidateDetail.
	ErrInvalidDetail = errors.New("invalid chapter detail")
)

// FetchError wraps the cause of a failed request. It matches both ErrFetch
// and the underlying error with errors.Is.
type FetchError struct {
	Resource string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrFetch, e.Err}
}
