// Package extraction requests a structured journal entry for a normalized
// document from an analysis backend: either the hosted analysis function
// or a vision model called directly.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/JaimeStill/tally/internal/journal"
)

// DocumentType is the declared kind of an uploaded document.
type DocumentType string

const (
	Invoice       DocumentType = "invoice"
	Receipt       DocumentType = "receipt"
	BankStatement DocumentType = "bank_statement"
)

// ExpectedFormat is the output shape requested from the analysis backend.
const ExpectedFormat = "journal_entry"

var documentTypes = []DocumentType{Invoice, Receipt, BankStatement}

// ParseDocumentType validates s as a DocumentType. An empty value selects Invoice.
func ParseDocumentType(s string) (DocumentType, error) {
	if s == "" {
		return Invoice, nil
	}
	dt := DocumentType(s)
	if !slices.Contains(documentTypes, dt) {
		return "", fmt.Errorf("%w: %s", ErrInvalidDocumentType, s)
	}
	return dt, nil
}

// Request is the payload sent to the analysis backend.
type Request struct {
	DocumentBase64 string       `json:"document_base64"`
	DocumentType   DocumentType `json:"document_type"`
	CompanyID      string       `json:"company_id"`
	ExpectedFormat string       `json:"expected_format"`
	MimeType       string       `json:"mime_type"`
}

// NewRequest builds a Request with the journal_entry output format.
func NewRequest(base64, mimeType string, docType DocumentType, companyID string) Request {
	return Request{
		DocumentBase64: base64,
		DocumentType:   docType,
		CompanyID:      companyID,
		ExpectedFormat: ExpectedFormat,
		MimeType:       mimeType,
	}
}

// Extractor produces an extracted journal entry for a document. Each call
// issues exactly one backend request; results are not retried or cached.
type Extractor interface {
	Extract(ctx context.Context, req Request) (*journal.ExtractedEntry, error)
}

var totalKeys = []string{"total_ht", "vat_amount", "total_ttc"}

// decodeEntry validates an entry payload against the entry schema and
// decodes it. Totals reported at the top level of the payload are moved
// into raw_extraction when the backend omits that object.
func decodeEntry(data []byte) (*journal.ExtractedEntry, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if _, ok := fields["raw_extraction"]; !ok {
		raw := make(map[string]json.RawMessage)
		for _, k := range totalKeys {
			if v, ok := fields[k]; ok && string(v) != "null" {
				raw[k] = v
			}
		}
		if len(raw) > 0 {
			b, err := json.Marshal(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
			}
			fields["raw_extraction"] = b
		}
	}

	normalized, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if err := validateSchema(normalized); err != nil {
		return nil, err
	}

	var entry journal.ExtractedEntry
	if err := json.Unmarshal(normalized, &entry); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return &entry, nil
}
