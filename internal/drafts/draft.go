// Package drafts maps a validated extracted entry onto the company's chart
// of accounts, producing the draft ledger entry offered for confirmation.
package drafts

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a draft ledger line bound to a resolved account.
type Item struct {
	AccountID     uuid.UUID       `json:"account_id"`
	AccountNumber string          `json:"account_number"`
	DebitAmount   decimal.Decimal `json:"debit_amount"`
	CreditAmount  decimal.Decimal `json:"credit_amount"`
	Description   string          `json:"description"`
	Currency      string          `json:"currency"`
}

// Unresolved records an extracted line that matched no account.
type Unresolved struct {
	Line   int    `json:"line"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Draft is the pre-filled journal entry form.
type Draft struct {
	CompanyID       uuid.UUID    `json:"company_id"`
	EntryDate       string       `json:"entry_date"`
	Description     string       `json:"description"`
	ReferenceNumber string       `json:"reference_number"`
	Currency        string       `json:"currency"`
	Items           []Item       `json:"items"`
	Unresolved      []Unresolved `json:"unresolved,omitempty"`
}

// Totals returns the draft's debit and credit sums.
func (d *Draft) Totals() (debit, credit decimal.Decimal) {
	for _, it := range d.Items {
		debit = debit.Add(it.DebitAmount)
		credit = credit.Add(it.CreditAmount)
	}
	return debit, credit
}
