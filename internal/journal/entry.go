// Package journal defines the extracted journal entry returned by document
// analysis and the double-entry rules it must satisfy before it can be
// offered for confirmation.
package journal

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Line is a single candidate ledger line. At least one of AccountClass or
// AccountSuggestion identifies the target account.
type Line struct {
	AccountClass      string          `json:"account_class,omitempty"`
	AccountSuggestion string          `json:"account_suggestion,omitempty"`
	DebitAmount       decimal.Decimal `json:"debit_amount"`
	CreditAmount      decimal.Decimal `json:"credit_amount"`
	Description       string          `json:"description,omitempty"`
}

// Code returns the account hint used for class-prefix matching: the account
// class when present, otherwise the suggestion.
func (l Line) Code() string {
	if c := strings.TrimSpace(l.AccountClass); c != "" {
		return c
	}
	return strings.TrimSpace(l.AccountSuggestion)
}

// HasAccount reports whether the line carries any account hint.
func (l Line) HasAccount() bool {
	return l.Code() != ""
}

// RawExtraction holds the invoice totals read by OCR independently of the
// structured lines.
type RawExtraction struct {
	TotalHT   *decimal.Decimal `json:"total_ht,omitempty"`
	VATAmount *decimal.Decimal `json:"vat_amount,omitempty"`
	TotalTTC  *decimal.Decimal `json:"total_ttc,omitempty"`
}

// Complete reports whether all three totals are present.
func (r *RawExtraction) Complete() bool {
	return r != nil && r.TotalHT != nil && r.VATAmount != nil && r.TotalTTC != nil
}

// ExtractedEntry is a candidate journal entry produced by the analysis service.
type ExtractedEntry struct {
	EntryDate       string         `json:"entry_date"`
	Description     string         `json:"description,omitempty"`
	ReferenceNumber string         `json:"reference_number,omitempty"`
	ConfidenceScore float64        `json:"confidence_score"`
	Lines           []Line         `json:"lines"`
	RawExtraction   *RawExtraction `json:"raw_extraction,omitempty"`
}

// Totals returns the sum of debit and credit amounts across all lines.
func (e *ExtractedEntry) Totals() (debit, credit decimal.Decimal) {
	for _, l := range e.Lines {
		debit = debit.Add(l.DebitAmount)
		credit = credit.Add(l.CreditAmount)
	}
	return debit, credit
}

// Clone returns a deep copy of the entry.
func (e *ExtractedEntry) Clone() *ExtractedEntry {
	c := *e
	if e.Lines != nil {
		c.Lines = make([]Line, len(e.Lines))
		copy(c.Lines, e.Lines)
	}
	if e.RawExtraction != nil {
		c.RawExtraction = &RawExtraction{
			TotalHT:   cloneAmount(e.RawExtraction.TotalHT),
			VATAmount: cloneAmount(e.RawExtraction.VATAmount),
			TotalTTC:  cloneAmount(e.RawExtraction.TotalTTC),
		}
	}
	return &c
}

func cloneAmount(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"02/01/2006",
}

// ParseDate parses an entry date in ISO form (2006-01-02), RFC 3339, or the
// day-first form printed on French invoices (02/01/2006).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
