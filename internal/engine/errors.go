package engine

import (
	"errors"
	"fmt"
)

// unavailableError signals a missing runtime dependency (e.g. llama.cpp not
// linked into this build) so callers can fail fast at startup.
type unavailableError struct{ msg string }

func (e unavailableError) Error() string { return e.msg }

// ErrUnavailable constructs an unavailableError.
func ErrUnavailable(msg string) error { return unavailableError{msg: msg} }

// IsUnavailable reports whether err indicates a missing runtime dependency.
func IsUnavailable(err error) bool {
	var ue unavailableError
	return errors.As(err, &ue)
}

// StatusError is returned by HTTP backends on a non-2xx reply.
type StatusError struct {
	Backend string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Backend, e.Code)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Backend, e.Code, e.Body)
}
