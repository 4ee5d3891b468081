package drafts_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JaimeStill/tally/internal/accounts"
	"github.com/JaimeStill/tally/internal/drafts"
	"github.com/JaimeStill/tally/internal/journal"
)

var companyID = uuid.MustParse("7d1e6f3a-4c2b-4a8e-9f10-2b3c4d5e6f70")

type mockResolver struct {
	resolveFn func(ctx context.Context, q accounts.ResolveQuery) (*accounts.Account, error)
}

func (m *mockResolver) Resolve(ctx context.Context, q accounts.ResolveQuery) (*accounts.Account, error) {
	return m.resolveFn(ctx, q)
}

// chartResolver resolves against a fixed list of account numbers the way
// the database query does: exact number when given, else the lowest
// number starting with the prefix.
func chartResolver(numbers ...string) *mockResolver {
	slices.Sort(numbers)
	return &mockResolver{
		resolveFn: func(_ context.Context, q accounts.ResolveQuery) (*accounts.Account, error) {
			for _, n := range numbers {
				if (q.Number != "" && n == q.Number) || (q.Number == "" && strings.HasPrefix(n, q.ClassPrefix)) {
					return &accounts.Account{
						ID:            uuid.NewSHA1(uuid.NameSpaceOID, []byte(n)),
						CompanyID:     q.CompanyID,
						AccountNumber: n,
						IsActive:      true,
					}, nil
				}
			}
			return nil, accounts.ErrNotFound
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func invoiceEntry() *journal.ExtractedEntry {
	return &journal.ExtractedEntry{
		EntryDate:       "2024-03-15",
		Description:     "Facture fournisseur",
		ReferenceNumber: "F-2024-031",
		ConfidenceScore: 92,
		Lines: []journal.Line{
			{AccountClass: "6", AccountSuggestion: "607100", DebitAmount: amount("100.00"), Description: "Achats"},
			{AccountSuggestion: "44566", DebitAmount: amount("20.00")},
			{AccountClass: "401", CreditAmount: amount("120.00"), Description: "Fournisseur"},
		},
	}
}

func TestMapResolvesAllLines(t *testing.T) {
	m := drafts.NewMapper(chartResolver("401000", "401100", "44566", "607000", "607100"), testLogger())

	draft, err := m.Map(context.Background(), invoiceEntry(), companyID, "eur")
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	wantNumbers := []string{"607100", "44566", "401000"}
	if len(draft.Items) != len(wantNumbers) {
		t.Fatalf("items = %d, want %d", len(draft.Items), len(wantNumbers))
	}
	for i, want := range wantNumbers {
		if draft.Items[i].AccountNumber != want {
			t.Errorf("item %d account = %s, want %s", i, draft.Items[i].AccountNumber, want)
		}
		if draft.Items[i].Currency != "EUR" {
			t.Errorf("item %d currency = %s, want EUR", i, draft.Items[i].Currency)
		}
	}

	if draft.Items[1].Description != "Facture fournisseur" {
		t.Errorf("fallback description = %q", draft.Items[1].Description)
	}
	if draft.Items[0].Description != "Achats" {
		t.Errorf("line description = %q", draft.Items[0].Description)
	}

	debit, credit := draft.Totals()
	if !debit.Equal(amount("120")) || !credit.Equal(amount("120")) {
		t.Errorf("totals = %s/%s, want 120/120", debit, credit)
	}
	if len(draft.Unresolved) != 0 {
		t.Errorf("unresolved = %+v, want none", draft.Unresolved)
	}
	if draft.ReferenceNumber != "F-2024-031" || draft.CompanyID != companyID {
		t.Errorf("header = %+v", draft)
	}
}

func TestMapExactFallsBackToPrefix(t *testing.T) {
	m := drafts.NewMapper(chartResolver("401000", "44566", "607000"), testLogger())

	draft, err := m.Map(context.Background(), invoiceEntry(), companyID, "EUR")
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	if got := draft.Items[0].AccountNumber; got != "607000" {
		t.Errorf("account = %s, want prefix match 607000", got)
	}
}

func TestMapDropsUnresolvedLines(t *testing.T) {
	entry := invoiceEntry()
	entry.Lines = append(entry.Lines,
		journal.Line{AccountClass: "625", DebitAmount: amount("30.00"), Description: "Deplacement"},
		journal.Line{AccountClass: "512", CreditAmount: amount("30.00"), Description: "Banque"},
	)
	m := drafts.NewMapper(chartResolver("401000", "44566", "607000"), testLogger())

	draft, err := m.Map(context.Background(), entry, companyID, "EUR")
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	if len(draft.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(draft.Items))
	}
	if draft.Items[0].AccountNumber != "607000" || draft.Items[2].AccountNumber != "401000" {
		t.Errorf("items out of order: %+v", draft.Items)
	}
	if len(draft.Unresolved) != 2 || draft.Unresolved[0].Line != 4 || draft.Unresolved[1].Code != "512" {
		t.Errorf("unresolved = %+v", draft.Unresolved)
	}

	debit, credit := draft.Totals()
	if !debit.Equal(credit) {
		t.Errorf("totals = %s/%s, want balanced", debit, credit)
	}
}

func TestMapRejectsUnbalancedDraft(t *testing.T) {
	m := drafts.NewMapper(chartResolver("401000", "607000"), testLogger())

	draft, err := m.Map(context.Background(), invoiceEntry(), companyID, "EUR")
	if !errors.Is(err, drafts.ErrUnmappable) {
		t.Fatalf("error = %v, want ErrUnmappable", err)
	}
	if draft != nil {
		t.Errorf("draft = %+v, want nil", draft)
	}
	if !strings.Contains(err.Error(), "unbalanced") {
		t.Errorf("error = %q, want unbalanced reason", err)
	}
}

func TestMapUnmappable(t *testing.T) {
	tests := []struct {
		name  string
		chart []string
		entry func() *journal.ExtractedEntry
	}{
		{
			name:  "one line resolves",
			chart: []string{"401000"},
			entry: invoiceEntry,
		},
		{
			name:  "no account hints",
			chart: []string{"401000", "607000"},
			entry: func() *journal.ExtractedEntry {
				e := invoiceEntry()
				for i := range e.Lines {
					e.Lines[i].AccountClass = ""
					e.Lines[i].AccountSuggestion = ""
				}
				return e
			},
		},
		{
			name:  "non numeric hints",
			chart: []string{"401000", "607000"},
			entry: func() *journal.ExtractedEntry {
				e := invoiceEntry()
				for i := range e.Lines {
					e.Lines[i].AccountClass = "charges"
					e.Lines[i].AccountSuggestion = "achats"
				}
				return e
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := drafts.NewMapper(chartResolver(tt.chart...), testLogger())
			draft, err := m.Map(context.Background(), tt.entry(), companyID, "EUR")
			if !errors.Is(err, drafts.ErrUnmappable) {
				t.Errorf("error = %v, want ErrUnmappable", err)
			}
			if draft != nil {
				t.Errorf("draft = %+v, want nil", draft)
			}
		})
	}
}

func TestMapInvalidInput(t *testing.T) {
	m := drafts.NewMapper(chartResolver("401000"), testLogger())

	tests := []struct {
		name     string
		entry    *journal.ExtractedEntry
		company  uuid.UUID
		currency string
		want     error
	}{
		{"nil entry", nil, companyID, "EUR", drafts.ErrMissingEntry},
		{"no company", invoiceEntry(), uuid.Nil, "EUR", drafts.ErrInvalidTarget},
		{"no currency", invoiceEntry(), companyID, " ", drafts.ErrInvalidTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Map(context.Background(), tt.entry, tt.company, tt.currency)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMapResolverFailure(t *testing.T) {
	m := drafts.NewMapper(&mockResolver{
		resolveFn: func(context.Context, accounts.ResolveQuery) (*accounts.Account, error) {
			return nil, errors.New("connection refused")
		},
	}, testLogger())

	_, err := m.Map(context.Background(), invoiceEntry(), companyID, "EUR")
	if err == nil || errors.Is(err, drafts.ErrUnmappable) {
		t.Errorf("error = %v, want resolver failure", err)
	}
	if drafts.MapHTTPStatus(err) != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", drafts.MapHTTPStatus(err))
	}
}

func TestMapDoesNotMutateEntry(t *testing.T) {
	m := drafts.NewMapper(chartResolver("401000", "44566", "607100"), testLogger())
	entry := invoiceEntry()
	before := entry.Clone()

	if _, err := m.Map(context.Background(), entry, companyID, "EUR"); err != nil {
		t.Fatalf("Map: %v", err)
	}

	for i := range entry.Lines {
		if entry.Lines[i] != before.Lines[i] {
			t.Errorf("line %d mutated: %+v", i, entry.Lines[i])
		}
	}
}
