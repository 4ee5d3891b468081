package analyses

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/tally/internal/extraction"
	"github.com/JaimeStill/tally/internal/uploads"
	"github.com/JaimeStill/tally/pkg/handlers"
	"github.com/JaimeStill/tally/pkg/routes"
)

// multipartOverhead allows for form fields and boundaries on top of the file.
const multipartOverhead = 1 << 20

// Handler provides the document analysis endpoint.
type Handler struct {
	sys             System
	logger          *slog.Logger
	defaultCurrency string
}

// NewHandler creates a Handler. defaultCurrency applies when a request
// omits the currency field.
func NewHandler(sys System, logger *slog.Logger, defaultCurrency string) *Handler {
	return &Handler{
		sys:             sys,
		logger:          logger.With("handler", "analyses"),
		defaultCurrency: defaultCurrency,
	}
}

// Routes returns the route group definition for analysis endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/analyses",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Analyze},
		},
	}
}

// Analyze accepts a multipart upload with file, company_id, and optional
// document_type and currency fields.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	maxSize := h.sys.MaxUploadSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, uploads.ErrFileTooLarge)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	companyID, err := uuid.Parse(r.FormValue("company_id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	docType, err := extraction.ParseDocumentType(r.FormValue("document_type"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	currency := strings.TrimSpace(r.FormValue("currency"))
	if currency == "" {
		currency = h.defaultCurrency
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	cmd := Command{
		File: uploads.File{
			Filename:    header.Filename,
			ContentType: uploads.DetectContentType(header.Header.Get("Content-Type"), data),
			Data:        data,
		},
		DocumentType: docType,
		CompanyID:    companyID,
		Currency:     currency,
	}

	result, err := h.sys.Analyze(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
