package entries_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JaimeStill/tally/internal/entries"
)

var (
	companyID = uuid.MustParse("7d1e6f3a-4c2b-4a8e-9f10-2b3c4d5e6f70")
	expenseID = uuid.MustParse("0b6f1c1e-8d7a-4f43-9a60-1f0c1d2e3f40")
	vatID     = uuid.MustParse("1c7a2d2f-9e8b-4a54-8b71-2a1d2e3f4051")
	payableID = uuid.MustParse("2d8b3e3a-af9c-4b65-9c82-3b2e3f405162")
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validCommand() entries.CreateCommand {
	return entries.CreateCommand{
		CompanyID:       companyID,
		EntryDate:       "2024-03-15",
		Description:     "Facture fournisseur",
		ReferenceNumber: "F-2024-031",
		Currency:        "eur",
		Items: []entries.LineCommand{
			{AccountID: expenseID, DebitAmount: dec("100.00")},
			{AccountID: vatID, DebitAmount: dec("20.00")},
			{AccountID: payableID, CreditAmount: dec("120.00")},
		},
	}
}

func TestCreateCommandValidate(t *testing.T) {
	cmd := validCommand()
	if err := cmd.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cmd.Currency != "EUR" {
		t.Errorf("currency = %q, want normalized EUR", cmd.Currency)
	}

	debit, credit := cmd.Totals()
	if !debit.Equal(dec("120")) || !credit.Equal(dec("120")) {
		t.Errorf("totals = %s/%s", debit, credit)
	}
}

func TestCreateCommandValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *entries.CreateCommand)
		want   []string
	}{
		{
			name:   "missing company",
			modify: func(c *entries.CreateCommand) { c.CompanyID = uuid.Nil },
			want:   []string{"company_id: required"},
		},
		{
			name:   "bad date",
			modify: func(c *entries.CreateCommand) { c.EntryDate = "15 mars" },
			want:   []string{"entry_date: entry_date"},
		},
		{
			name:   "currency length",
			modify: func(c *entries.CreateCommand) { c.Currency = "EURO" },
			want:   []string{"currency: len=3"},
		},
		{
			name:   "single line",
			modify: func(c *entries.CreateCommand) { c.Items = c.Items[:1] },
			want:   []string{"items: min=2", "items: balanced"},
		},
		{
			name: "unbalanced",
			modify: func(c *entries.CreateCommand) {
				c.Items[2].CreditAmount = dec("119.98")
			},
			want: []string{"items: balanced"},
		},
		{
			name: "both sides set",
			modify: func(c *entries.CreateCommand) {
				c.Items[0].CreditAmount = dec("1")
				c.Items[2].CreditAmount = dec("119")
			},
			want: []string{"items[0].debit_amount: one_side"},
		},
		{
			name: "negative amount",
			modify: func(c *entries.CreateCommand) {
				c.Items[1].DebitAmount = dec("-20")
				c.Items[2].CreditAmount = dec("80")
			},
			want: []string{"items[1].debit_amount: gte_zero"},
		},
		{
			name:   "missing account",
			modify: func(c *entries.CreateCommand) { c.Items[1].AccountID = uuid.Nil },
			want:   []string{"items[1].account_id: required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := validCommand()
			tt.modify(&cmd)

			err := cmd.Validate()
			if !errors.Is(err, entries.ErrInvalidCommand) {
				t.Fatalf("error = %v, want ErrInvalidCommand", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error %q missing %q", err, w)
				}
			}
		})
	}
}

func TestCreateCommandBalanceTolerance(t *testing.T) {
	cmd := validCommand()
	cmd.Items[2].CreditAmount = dec("119.995")

	if err := cmd.Validate(); err != nil {
		t.Errorf("difference within tolerance rejected: %v", err)
	}
}
