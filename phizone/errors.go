package phizone

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the API answers 404 for a user or chart.
var ErrNotFound = errors.New("phizone: not found")

// StatusError is any non-200, non-404 response. The bot surfaces these as a
// generic failure; the status code is kept for logs and tests.
type StatusError struct {
	StatusCode int
	Path       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("phizone: GET %s: unexpected status %d", e.Path, e.StatusCode)
}

// IsNotFound reports whether err means the requested entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
