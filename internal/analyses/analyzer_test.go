package analyses_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JaimeStill/tally/internal/analyses"
	"github.com/JaimeStill/tally/internal/drafts"
	"github.com/JaimeStill/tally/internal/extraction"
	"github.com/JaimeStill/tally/internal/journal"
	"github.com/JaimeStill/tally/internal/uploads"
)

var companyID = uuid.MustParse("7d1e6f3a-4c2b-4a8e-9f10-2b3c4d5e6f70")

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type mockExtractor struct {
	extractFn func(ctx context.Context, req extraction.Request) (*journal.ExtractedEntry, error)
}

func (m *mockExtractor) Extract(ctx context.Context, req extraction.Request) (*journal.ExtractedEntry, error) {
	return m.extractFn(ctx, req)
}

type mockMapper struct {
	mapFn func(ctx context.Context, entry *journal.ExtractedEntry, companyID uuid.UUID, currency string) (*drafts.Draft, error)
}

func (m *mockMapper) Map(ctx context.Context, entry *journal.ExtractedEntry, companyID uuid.UUID, currency string) (*drafts.Draft, error) {
	return m.mapFn(ctx, entry, companyID, currency)
}

type mockArchiver struct {
	mu        sync.Mutex
	keys      []string
	uploadErr error
}

func (m *mockArchiver) Upload(_ context.Context, key string, reader io.Reader, _ string) error {
	if _, err := io.ReadAll(reader); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return m.uploadErr
}

type mockRenderer struct {
	renderFn func(ctx context.Context, pdf []byte) ([]byte, error)
}

func (m *mockRenderer) RenderFirstPage(ctx context.Context, pdf []byte) ([]byte, error) {
	return m.renderFn(ctx, pdf)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func balancedEntry() *journal.ExtractedEntry {
	return &journal.ExtractedEntry{
		EntryDate:       "2024-03-15",
		Description:     "Facture fournisseur",
		ConfidenceScore: 92,
		Lines: []journal.Line{
			{AccountClass: "607", DebitAmount: *amount("100")},
			{AccountClass: "44566", DebitAmount: *amount("20")},
			{AccountClass: "401", CreditAmount: *amount("120")},
		},
	}
}

func okExtractor(entry func() *journal.ExtractedEntry) *mockExtractor {
	return &mockExtractor{
		extractFn: func(context.Context, extraction.Request) (*journal.ExtractedEntry, error) {
			return entry(), nil
		},
	}
}

func echoMapper() *mockMapper {
	return &mockMapper{
		mapFn: func(_ context.Context, entry *journal.ExtractedEntry, companyID uuid.UUID, currency string) (*drafts.Draft, error) {
			d := &drafts.Draft{CompanyID: companyID, Currency: currency, Description: entry.Description}
			for _, l := range entry.Lines {
				d.Items = append(d.Items, drafts.Item{DebitAmount: l.DebitAmount, CreditAmount: l.CreditAmount, Currency: currency})
			}
			return d, nil
		},
	}
}

func newNormalizer() *uploads.Normalizer {
	return uploads.New(0, &mockRenderer{
		renderFn: func(context.Context, []byte) ([]byte, error) {
			return pngData, nil
		},
	}, testLogger())
}

func pngCommand() analyses.Command {
	return analyses.Command{
		File:         uploads.File{Filename: "facture.png", ContentType: uploads.MimePNG, Data: pngData},
		DocumentType: extraction.Invoice,
		CompanyID:    companyID,
		Currency:     "EUR",
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	var got extraction.Request
	extractor := &mockExtractor{
		extractFn: func(_ context.Context, req extraction.Request) (*journal.ExtractedEntry, error) {
			got = req
			return balancedEntry(), nil
		},
	}
	archive := &mockArchiver{}

	sys := analyses.New(newNormalizer(), extractor, echoMapper(), archive, testLogger())

	result, err := sys.Analyze(context.Background(), pngCommand())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if got.ExpectedFormat != extraction.ExpectedFormat || got.MimeType != uploads.MimePNG {
		t.Errorf("request = %+v", got)
	}
	if got.CompanyID != companyID.String() || got.DocumentType != extraction.Invoice {
		t.Errorf("request target = %s/%s", got.CompanyID, got.DocumentType)
	}
	if !result.Validation.Valid {
		t.Errorf("validation errors: %v", result.Validation.Errors)
	}
	if result.Draft == nil || len(result.Draft.Items) != 3 {
		t.Fatalf("draft = %+v", result.Draft)
	}
	if result.PageCount != 1 || result.MimeType != uploads.MimePNG {
		t.Errorf("page count = %d, mime = %s", result.PageCount, result.MimeType)
	}
	if !strings.HasPrefix(result.SourceKey, "sources/") || !strings.HasSuffix(result.SourceKey, "/facture.png") {
		t.Errorf("source key = %q", result.SourceKey)
	}
	if len(archive.keys) != 1 || archive.keys[0] != result.SourceKey {
		t.Errorf("archived = %v", archive.keys)
	}
}

func TestAnalyzeMapsCorrectedEntry(t *testing.T) {
	extractor := okExtractor(func() *journal.ExtractedEntry {
		e := balancedEntry()
		e.Lines[1].DebitAmount = *amount("19")
		e.Lines[2].CreditAmount = *amount("119")
		e.RawExtraction = &journal.RawExtraction{
			TotalHT:   amount("100"),
			VATAmount: amount("20"),
			TotalTTC:  amount("119"),
		}
		return e
	})

	var mapped *journal.ExtractedEntry
	mapper := &mockMapper{
		mapFn: func(_ context.Context, entry *journal.ExtractedEntry, _ uuid.UUID, _ string) (*drafts.Draft, error) {
			mapped = entry
			return &drafts.Draft{}, nil
		},
	}

	sys := analyses.New(newNormalizer(), extractor, mapper, nil, testLogger())

	result, err := sys.Analyze(context.Background(), pngCommand())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if result.Validation.Corrected == nil {
		t.Fatal("expected corrected entry")
	}
	if mapped != result.Validation.Corrected {
		t.Error("mapper did not receive the corrected entry")
	}
	if !mapped.Lines[1].DebitAmount.Equal(decimal.NewFromInt(20)) {
		t.Errorf("vat line debit = %s, want 20", mapped.Lines[1].DebitAmount)
	}
	if !result.Extracted.Lines[1].DebitAmount.Equal(decimal.NewFromInt(19)) {
		t.Error("extracted entry was mutated")
	}
	if result.SourceKey != "" {
		t.Errorf("source key = %q, want empty without archive", result.SourceKey)
	}
}

func TestAnalyzeRejectedEntryIsNotMapped(t *testing.T) {
	extractor := okExtractor(func() *journal.ExtractedEntry {
		e := balancedEntry()
		e.EntryDate = "not a date"
		e.Lines[2].CreditAmount = *amount("100")
		return e
	})

	called := false
	mapper := &mockMapper{
		mapFn: func(context.Context, *journal.ExtractedEntry, uuid.UUID, string) (*drafts.Draft, error) {
			called = true
			return &drafts.Draft{}, nil
		},
	}

	sys := analyses.New(newNormalizer(), extractor, mapper, nil, testLogger())

	result, err := sys.Analyze(context.Background(), pngCommand())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Validation.Valid {
		t.Error("unbalanced entry reported valid")
	}
	if len(result.Validation.Errors) != 2 {
		t.Errorf("errors = %v, want balance and date errors", result.Validation.Errors)
	}
	if called {
		t.Error("rejected entry was passed to the mapper")
	}
	if result.Draft != nil || result.MappingError != "" {
		t.Errorf("draft = %+v, mapping error = %q, want neither", result.Draft, result.MappingError)
	}
	if result.Extracted == nil {
		t.Error("extracted entry should still be reported")
	}
}

func TestAnalyzeUnmappable(t *testing.T) {
	mapper := &mockMapper{
		mapFn: func(context.Context, *journal.ExtractedEntry, uuid.UUID, string) (*drafts.Draft, error) {
			return nil, fmt.Errorf("%w: 1 of 3 resolved", drafts.ErrUnmappable)
		},
	}

	sys := analyses.New(newNormalizer(), okExtractor(balancedEntry), mapper, nil, testLogger())

	result, err := sys.Analyze(context.Background(), pngCommand())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Draft != nil {
		t.Error("draft should be nil")
	}
	if !strings.Contains(result.MappingError, "1 of 3 resolved") {
		t.Errorf("mapping error = %q", result.MappingError)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	unavailable := &mockExtractor{
		extractFn: func(context.Context, extraction.Request) (*journal.ExtractedEntry, error) {
			return nil, fmt.Errorf("%w: connection refused", extraction.ErrServiceUnavailable)
		},
	}
	failingMapper := &mockMapper{
		mapFn: func(context.Context, *journal.ExtractedEntry, uuid.UUID, string) (*drafts.Draft, error) {
			return nil, errors.New("database unavailable")
		},
	}

	tests := []struct {
		name       string
		extractor  extraction.Extractor
		mapper     analyses.Mapper
		cmd        func() analyses.Command
		wantStatus int
	}{
		{
			name:       "service unavailable",
			extractor:  unavailable,
			mapper:     echoMapper(),
			cmd:        pngCommand,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:      "unsupported type",
			extractor: okExtractor(balancedEntry),
			mapper:    echoMapper(),
			cmd: func() analyses.Command {
				c := pngCommand()
				c.File.ContentType = "text/plain"
				return c
			},
			wantStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:      "too large",
			extractor: okExtractor(balancedEntry),
			mapper:    echoMapper(),
			cmd: func() analyses.Command {
				c := pngCommand()
				c.File.Data = make([]byte, uploads.DefaultMaxSize+1)
				return c
			},
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:      "missing company",
			extractor: okExtractor(balancedEntry),
			mapper:    echoMapper(),
			cmd: func() analyses.Command {
				c := pngCommand()
				c.CompanyID = uuid.Nil
				return c
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "mapper failure",
			extractor:  okExtractor(balancedEntry),
			mapper:     failingMapper,
			cmd:        pngCommand,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archive := &mockArchiver{}
			sys := analyses.New(newNormalizer(), tt.extractor, tt.mapper, archive, testLogger())

			_, err := sys.Analyze(context.Background(), tt.cmd())
			if err == nil {
				t.Fatal("expected error")
			}
			if got := analyses.MapHTTPStatus(err); got != tt.wantStatus {
				t.Errorf("status = %d, want %d (err: %v)", got, tt.wantStatus, err)
			}
		})
	}
}

func TestAnalyzeArchiveFailureIsNotFatal(t *testing.T) {
	archive := &mockArchiver{uploadErr: errors.New("container missing")}
	sys := analyses.New(newNormalizer(), okExtractor(balancedEntry), echoMapper(), archive, testLogger())

	result, err := sys.Analyze(context.Background(), pngCommand())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.SourceKey != "" {
		t.Errorf("source key = %q, want empty", result.SourceKey)
	}
}

func TestAnalyzeFailedExtractionIsNotArchived(t *testing.T) {
	unavailable := &mockExtractor{
		extractFn: func(context.Context, extraction.Request) (*journal.ExtractedEntry, error) {
			return nil, fmt.Errorf("%w: timeout", extraction.ErrServiceUnavailable)
		},
	}
	archive := &mockArchiver{}
	sys := analyses.New(newNormalizer(), unavailable, echoMapper(), archive, testLogger())

	if _, err := sys.Analyze(context.Background(), pngCommand()); err == nil {
		t.Fatal("expected error")
	}
	if len(archive.keys) != 0 {
		t.Errorf("archived = %v, want nothing", archive.keys)
	}
}

func TestAnalyzePDFUsesRenderedPage(t *testing.T) {
	var got extraction.Request
	extractor := &mockExtractor{
		extractFn: func(_ context.Context, req extraction.Request) (*journal.ExtractedEntry, error) {
			got = req
			return balancedEntry(), nil
		},
	}

	sys := analyses.New(newNormalizer(), extractor, echoMapper(), nil, testLogger())

	cmd := pngCommand()
	cmd.File = uploads.File{Filename: "facture.pdf", ContentType: uploads.MimePDF, Data: []byte("%PDF-1.4 not really")}

	result, err := sys.Analyze(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.MimeType != uploads.MimePNG || result.MimeType != uploads.MimePNG {
		t.Errorf("mime = %s/%s, want image/png", got.MimeType, result.MimeType)
	}
}
