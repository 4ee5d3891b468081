package accounts

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound     = errors.New("account not found")
	ErrDuplicate    = errors.New("account already exists")
	ErrInvalidQuery = errors.New("invalid account query")
)

// MapHTTPStatus maps account domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidQuery) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
