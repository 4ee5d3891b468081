// Package analyses runs the upload-to-draft pipeline: normalize the upload,
// extract a journal entry, validate it, and map it onto the chart of
// accounts.
package analyses

import (
	"github.com/google/uuid"

	"github.com/JaimeStill/tally/internal/drafts"
	"github.com/JaimeStill/tally/internal/extraction"
	"github.com/JaimeStill/tally/internal/journal"
	"github.com/JaimeStill/tally/internal/uploads"
)

// Command carries one uploaded document and its analysis target.
type Command struct {
	File         uploads.File
	DocumentType extraction.DocumentType
	CompanyID    uuid.UUID
	Currency     string
}

// Analysis is the outcome of analyzing one document. Validation failures
// are reported in Validation rather than as an error. Draft is nil when
// the entry was rejected by validation, or when it could not be mapped,
// in which case MappingError says why.
type Analysis struct {
	Validation   journal.Result          `json:"validation"`
	Extracted    *journal.ExtractedEntry `json:"extracted"`
	Draft        *drafts.Draft           `json:"draft,omitempty"`
	MappingError string                  `json:"mapping_error,omitempty"`
	MimeType     string                  `json:"mime_type"`
	PageCount    int                     `json:"page_count"`
	SourceKey    string                  `json:"source_key,omitempty"`
}

// Entry returns the entry a draft is built from: the corrected copy when
// totals were corrected, otherwise the extracted entry.
func (a *Analysis) Entry() *journal.ExtractedEntry {
	if a.Validation.Corrected != nil {
		return a.Validation.Corrected
	}
	return a.Extracted
}
