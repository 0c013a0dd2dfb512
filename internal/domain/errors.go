package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized means no API key is available or the origin rejected it
	ErrUnauthorized = errors.New("unauthorized: api key not set or rejected")
	// ErrInvalidRequest means the request could not be constructed
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNoData means the transport returned no body
	ErrNoData = errors.New("no data")
	// ErrDecode means the body did not match the expected schema
	ErrDecode = errors.New("decode error")
	// ErrPersistence means a commit or fetch against the favorites store failed
	ErrPersistence = errors.New("persistence error")
	// ErrIO means a filesystem operation of the image cache failed
	ErrIO = errors.New("io error")
	// ErrCacheUnavailable means the image cache directory could not be recreated
	ErrCacheUnavailable = errors.New("image cache unavailable")
	// ErrNotFound means the requested favorite does not exist
	ErrNotFound = errors.New("not found")
)

// APIError is a non-2xx response from the catalog origin
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog API error: status %d: %s", e.StatusCode, e.Body)
}

// Unwrap maps the status onto the fetch error taxonomy
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	return ErrNoData
}

// PageError records the failure of one catalog page during a sync run
type PageError struct {
	Page int
	Err  error
}

func (e PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e PageError) Unwrap() error { return e.Err }
