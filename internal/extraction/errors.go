package extraction

import (
	"errors"
	"net/http"
)

var (
	ErrServiceUnavailable  = errors.New("analysis service unavailable, try again")
	ErrMalformedResponse   = errors.New("malformed analysis response")
	ErrExtractionFailed    = errors.New("document analysis failed")
	ErrInvalidDocumentType = errors.New("invalid document type")
)

// MapHTTPStatus maps extraction errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, ErrExtractionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidDocumentType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
