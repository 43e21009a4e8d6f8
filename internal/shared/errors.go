package shared

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Taxonomy surfaced to callers. Every error returned by the core wraps exactly one of these.
	ErrAuthRequired  = fmt.Errorf("authentication required")
	ErrAuthExpired   = fmt.Errorf("authentication expired")
	ErrInvalidInput  = fmt.Errorf("invalid input")
	ErrNotFound      = fmt.Errorf("not found")
	ErrUpstream      = fmt.Errorf("upstream request failed")
	ErrConfiguration = fmt.Errorf("configuration error")

	// Authentication errors
	ErrRefreshFailed  = fmt.Errorf("%w: token refresh failed", ErrAuthExpired)
	ErrNoRefreshToken = fmt.Errorf("%w: no refresh token available", ErrAuthExpired)
	ErrInvalidState   = fmt.Errorf("%w: invalid oauth state", ErrInvalidInput)

	// Input validation errors
	ErrInvalidURL      = fmt.Errorf("%w: invalid youtube url", ErrInvalidInput)
	ErrInvalidRating   = fmt.Errorf("%w: rating not allowed", ErrInvalidInput)
	ErrMissingArgument = fmt.Errorf("%w: missing required argument", ErrInvalidInput)

	// Lookup errors
	ErrVideoNotFound      = fmt.Errorf("%w: video", ErrNotFound)
	ErrUserColumnNotFound = fmt.Errorf("%w: user column", ErrNotFound)
	ErrSessionNotFound    = fmt.Errorf("%w: session", ErrNotFound)

	// Configuration errors
	ErrMissingPlaylistID    = fmt.Errorf("%w: youtube playlist id is not set", ErrConfiguration)
	ErrMissingSpreadsheetID = fmt.Errorf("%w: spreadsheet id is not set", ErrConfiguration)
	ErrMissingCredentials   = fmt.Errorf("%w: google client id and secret are required", ErrConfiguration)
)

// ErrorKind pairs the wire code of an error class with the HTTP status it maps to.
type ErrorKind struct {
	Code   string
	Status int
}

var (
	KindAuthRequired  = ErrorKind{Code: "AUTH_REQUIRED", Status: http.StatusUnauthorized}
	KindAuthExpired   = ErrorKind{Code: "TOKEN_EXPIRED", Status: http.StatusUnauthorized}
	KindInvalidInput  = ErrorKind{Code: "INVALID_INPUT", Status: http.StatusBadRequest}
	KindNotFound      = ErrorKind{Code: "NOT_FOUND", Status: http.StatusNotFound}
	KindUpstream      = ErrorKind{Code: "UPSTREAM_ERROR", Status: http.StatusBadGateway}
	KindConfiguration = ErrorKind{Code: "CONFIGURATION_ERROR", Status: http.StatusInternalServerError}
	KindInternal      = ErrorKind{Code: "INTERNAL_ERROR", Status: http.StatusInternalServerError}
)

// Kind classifies err into the taxonomy. Auth errors are checked first so that a wrapped
// upstream rejection is always reported as [KindAuthExpired].
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKind{Status: http.StatusOK}
	case errors.Is(err, ErrAuthExpired):
		return KindAuthExpired
	case errors.Is(err, ErrAuthRequired):
		return KindAuthRequired
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrUpstream):
		return KindUpstream
	default:
		return KindInternal
	}
}
