package journal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Thresholds applied by Validate.
var (
	BalanceTolerance    = decimal.RequireFromString("0.01")
	TotalTolerance      = decimal.RequireFromString("0.5")
	CorrectionTolerance = decimal.RequireFromString("0.01")
)

const (
	LowConfidence    = 70.0
	MediumConfidence = 85.0
)

// Account-number prefixes used to locate the lines touched by total correction.
var (
	vatPrefixes         = []string{"44"}
	counterpartPrefixes = []string{"40", "41"}
)

// Result is the outcome of validating an extracted entry. Corrected is set
// when the OCR totals were inconsistent and a corrected copy was produced;
// callers must still check Valid.
type Result struct {
	Valid     bool            `json:"valid"`
	Errors    []string        `json:"errors"`
	Warnings  []string        `json:"warnings"`
	Corrected *ExtractedEntry `json:"corrected,omitempty"`
}

// Validate checks entry against the double-entry and total-consistency
// rules. It never mutates entry.
func Validate(entry *ExtractedEntry) Result {
	res := Result{
		Errors:   []string{},
		Warnings: []string{},
	}

	if entry == nil {
		res.Errors = append(res.Errors, "entry is empty")
		return res
	}

	debit, credit := entry.Totals()

	if debit.Sub(credit).Abs().GreaterThan(BalanceTolerance) {
		res.Errors = append(res.Errors, fmt.Sprintf(
			"entry is unbalanced: debit %s, credit %s",
			debit.StringFixed(2), credit.StringFixed(2),
		))
	}

	if len(entry.Lines) < 2 {
		res.Errors = append(res.Errors, "entry must contain at least 2 lines")
	}

	if n := missingAccounts(entry.Lines); n > 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("%d line(s) without account suggestion", n))
	}

	if _, err := ParseDate(entry.EntryDate); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("invalid entry date: %q", entry.EntryDate))
	}

	if w := confidenceWarning(entry.ConfidenceScore); w != "" {
		res.Warnings = append(res.Warnings, w)
	}

	if raw := entry.RawExtraction; raw != nil && raw.TotalTTC != nil {
		lines := decimal.Max(debit, credit)
		if raw.TotalTTC.Sub(lines).Abs().GreaterThan(TotalTolerance) {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"extracted total %s does not match line total %s",
				raw.TotalTTC.StringFixed(2), lines.StringFixed(2),
			))
		}
	}

	if corrected, warning, ok := correctTotals(entry); ok {
		res.Corrected = corrected
		res.Warnings = append(res.Warnings, warning)
	}

	res.Valid = len(res.Errors) == 0
	return res
}

func missingAccounts(lines []Line) int {
	n := 0
	for _, l := range lines {
		if !l.HasAccount() {
			n++
		}
	}
	return n
}

func confidenceWarning(score float64) string {
	switch {
	case score < LowConfidence:
		return fmt.Sprintf("low confidence score (%.0f%%): manual verification recommended", score)
	case score < MediumConfidence:
		return fmt.Sprintf("medium confidence score (%.0f%%): review carefully", score)
	default:
		return ""
	}
}

// correctTotals recomputes total_ttc as total_ht + vat_amount when the OCR
// totals disagree, and propagates the amounts to the first VAT line and the
// first supplier/customer line of a deep copy.
func correctTotals(entry *ExtractedEntry) (*ExtractedEntry, string, bool) {
	raw := entry.RawExtraction
	if !raw.Complete() {
		return nil, "", false
	}

	sum := raw.TotalHT.Add(*raw.VATAmount)
	if sum.Sub(*raw.TotalTTC).Abs().LessThanOrEqual(CorrectionTolerance) {
		return nil, "", false
	}

	corrected := entry.Clone()
	corrected.RawExtraction.TotalTTC = &sum

	if i := firstLineWithPrefix(corrected.Lines, vatPrefixes); i >= 0 {
		corrected.Lines[i].DebitAmount = *raw.VATAmount
	}

	if i := firstLineWithPrefix(corrected.Lines, counterpartPrefixes); i >= 0 {
		if corrected.Lines[i].CreditAmount.IsZero() {
			corrected.Lines[i].CreditAmount = sum
		}
	}

	warning := fmt.Sprintf(
		"totals corrected: total_ttc %s replaced by %s (total_ht %s + vat_amount %s)",
		raw.TotalTTC.StringFixed(2),
		sum.StringFixed(2),
		raw.TotalHT.StringFixed(2),
		raw.VATAmount.StringFixed(2),
	)

	return corrected, warning, true
}

func firstLineWithPrefix(lines []Line, prefixes []string) int {
	for i, l := range lines {
		code := l.Code()
		for _, p := range prefixes {
			if strings.HasPrefix(code, p) {
				return i
			}
		}
	}
	return -1
}
