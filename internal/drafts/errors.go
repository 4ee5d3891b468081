package drafts

import (
	"errors"
	"net/http"
)

var (
	ErrUnmappable    = errors.New("fewer than 2 lines could be mapped to accounts")
	ErrMissingEntry  = errors.New("no entry to map")
	ErrInvalidTarget = errors.New("company_id and currency are required")
)

// MapHTTPStatus maps draft errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrUnmappable) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, ErrMissingEntry) || errors.Is(err, ErrInvalidTarget) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
