package extraction

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/encoding"
	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/JaimeStill/tally/internal/journal"
	"github.com/JaimeStill/tally/internal/uploads"
	"github.com/JaimeStill/tally/pkg/formatting"
)

const agentInstructions = `You are an accounting assistant working with the French chart of accounts (PCG).
Read the attached %s and produce the journal entry that records it.

Respond with a single JSON object and nothing else:
{
  "entry_date": "YYYY-MM-DD",
  "description": "short label",
  "reference_number": "document number",
  "confidence_score": 0-100,
  "lines": [
    {"account_class": "account number or class prefix", "account_suggestion": "account name",
     "debit_amount": 0.00, "credit_amount": 0.00, "description": "line label"}
  ],
  "raw_extraction": {"total_ht": 0.00, "vat_amount": 0.00, "total_ttc": 0.00}
}

Rules:
- Total debits must equal total credits.
- Use 6xx for purchases and expenses, 44566 for deductible VAT, 401 for suppliers.
- For sales use 411 for customers, 7xx for revenue, 44571 for collected VAT.
- For bank statements use 512 for the bank account.
- raw_extraction holds the totals printed on the document, not recomputed values.`

type agentExtractor struct {
	cfg    gaconfig.AgentConfig
	logger *slog.Logger
}

// NewAgent returns an Extractor that sends the document image directly
// to a vision model.
func NewAgent(cfg gaconfig.AgentConfig, logger *slog.Logger) Extractor {
	return &agentExtractor{
		cfg:    cfg,
		logger: logger.With("system", "extraction", "mode", "agent"),
	}
}

func (e *agentExtractor) Extract(ctx context.Context, req Request) (*journal.ExtractedEntry, error) {
	dataURI, err := imageDataURI(req)
	if err != nil {
		return nil, err
	}

	a, err := agent.New(&e.cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: create agent: %w", ErrServiceUnavailable, err)
	}

	prompt := fmt.Sprintf(agentInstructions, strings.ReplaceAll(string(req.DocumentType), "_", " "))

	resp, err := a.Vision(ctx, prompt, []string{dataURI})
	if err != nil {
		e.logger.ErrorContext(ctx, "vision call failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}

	data, err := formatting.ExtractJSON(resp.Content())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	entry, err := decodeEntry(data)
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(
		ctx, "vision extraction complete",
		"document_type", req.DocumentType,
		"lines", len(entry.Lines),
		"confidence", entry.ConfidenceScore,
	)

	return entry, nil
}

// imageDataURI rebuilds the document as a data URI. PNG payloads go
// through the document-context encoder; other accepted image types are
// wrapped directly.
func imageDataURI(req Request) (string, error) {
	if req.MimeType == uploads.MimePNG {
		data, err := decodeBase64(req.DocumentBase64)
		if err != nil {
			return "", err
		}
		uri, err := encoding.EncodeImageDataURI(data, document.PNG)
		if err != nil {
			return "", fmt.Errorf("encode image: %w", err)
		}
		return uri, nil
	}

	mime := req.MimeType
	if mime == uploads.MimeJPG {
		mime = uploads.MimeJPEG
	}
	return "data:" + mime + ";base64," + req.DocumentBase64, nil
}

func decodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return data, nil
}
