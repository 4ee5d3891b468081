package entries

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound       = errors.New("journal entry not found")
	ErrDuplicate      = errors.New("journal entry already exists")
	ErrInvalidCommand = errors.New("invalid journal entry")
	ErrUnknownAccount = errors.New("account not found for company")
)

// MapHTTPStatus maps entry errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCommand), errors.Is(err, ErrUnknownAccount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
