package entries

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/JaimeStill/tally/pkg/query"
	"github.com/JaimeStill/tally/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "journal_entries", "e").
	Project("id", "ID").
	Project("company_id", "CompanyID").
	Project("entry_date", "EntryDate").
	Project("description", "Description").
	Project("reference_number", "ReferenceNumber").
	Project("currency", "Currency").
	Project("total_debit", "TotalDebit").
	Project("total_credit", "TotalCredit").
	Project("source_key", "SourceKey").
	Project("confirmed_by", "ConfirmedBy").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{Field: "EntryDate", Descending: true}

// Filters contains optional filtering criteria for entry queries.
type Filters struct {
	CompanyID       *uuid.UUID `json:"company_id,omitempty"`
	Currency        *string    `json:"currency,omitempty"`
	ReferenceNumber *string    `json:"reference_number,omitempty"`
	ConfirmedBy     *string    `json:"confirmed_by,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("CompanyID", f.CompanyID).
		WhereEquals("Currency", f.Currency).
		WhereContains("ReferenceNumber", f.ReferenceNumber).
		WhereEquals("ConfirmedBy", f.ConfirmedBy)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("company_id"); c != "" {
		if id, err := uuid.Parse(c); err == nil {
			f.CompanyID = &id
		}
	}

	if c := values.Get("currency"); c != "" {
		f.Currency = &c
	}

	if r := values.Get("reference_number"); r != "" {
		f.ReferenceNumber = &r
	}

	if c := values.Get("confirmed_by"); c != "" {
		f.ConfirmedBy = &c
	}

	return f
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var e Entry
	err := s.Scan(
		&e.ID,
		&e.CompanyID,
		&e.EntryDate,
		&e.Description,
		&e.ReferenceNumber,
		&e.Currency,
		&e.TotalDebit,
		&e.TotalCredit,
		&e.SourceKey,
		&e.ConfirmedBy,
		&e.CreatedAt,
	)
	return e, err
}

const linesQuery = `
	SELECT l.id, l.entry_id, l.line_number, l.account_id, a.account_number, a.account_name,
		l.debit_amount, l.credit_amount, l.description
	FROM public.journal_entry_lines l
	JOIN public.chart_of_accounts a ON a.id = l.account_id
	WHERE l.entry_id = ANY($1::uuid[])
	ORDER BY l.entry_id, l.line_number`

func scanLine(s repository.Scanner) (Line, error) {
	var l Line
	err := s.Scan(
		&l.ID,
		&l.EntryID,
		&l.LineNumber,
		&l.AccountID,
		&l.AccountNumber,
		&l.AccountName,
		&l.DebitAmount,
		&l.CreditAmount,
		&l.Description,
	)
	return l, err
}
