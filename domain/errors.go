package domain

import (
	"errors"
	"fmt"
)

// ErrToolChainUnresolved is returned when the tool resolution loop
// exhausts its iteration bound without a content answer.
var ErrToolChainUnresolved = errors.New("tool chain unresolved: iteration limit reached")

// UpstreamError reports a failed call to the completion API. The body is
// kept for server-side logging; it is never forwarded to clients.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream error: %v", e.Err)
	}
	return fmt.Sprintf("upstream error [%d]: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
