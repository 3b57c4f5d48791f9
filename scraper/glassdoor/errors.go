package glassdoor

import (
	"errors"
	"fmt"
	"net/http"
)

// AuthError means no usable session could be negotiated, or the upstream
// kept rejecting the anti-forgery token after a renegotiation.
type AuthError struct {
	Attempts int
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("glassdoor: session negotiation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// LocationNotFoundError means the location lookup returned no candidates.
type LocationNotFoundError struct {
	Query string
}

func (e *LocationNotFoundError) Error() string {
	return fmt.Sprintf("glassdoor: could not resolve location %q", e.Query)
}

// PageFetchError records a page that could not be fetched. It ends a search
// early but does not fail the job.
type PageFetchError struct {
	Page     int
	Attempts int
	Err      error
}

func (e *PageFetchError) Error() string {
	return fmt.Sprintf("glassdoor: page %d failed after %d attempts: %v", e.Page, e.Attempts, e.Err)
}

func (e *PageFetchError) Unwrap() error { return e.Err }

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Code)
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

var errNoToken = errors.New("no csrf token in session page")

// IsAuth reports whether err is, or wraps, an AuthError.
func IsAuth(err error) bool {
	var auth *AuthError
	return errors.As(err, &auth)
}
