package analyses

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/tally/internal/extraction"
	"github.com/JaimeStill/tally/internal/uploads"
)

var ErrInvalidRequest = errors.New("invalid analysis request")

// MapHTTPStatus maps analysis errors, including wrapped upload and
// extraction errors, to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	if status := uploads.MapHTTPStatus(err); status != http.StatusInternalServerError {
		return status
	}
	return extraction.MapHTTPStatus(err)
}
