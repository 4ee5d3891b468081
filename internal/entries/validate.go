package entries

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/JaimeStill/tally/internal/journal"
)

var validate = sync.OnceValue(newValidator)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("entry_date", func(fl validator.FieldLevel) bool {
		_, err := journal.ParseDate(fl.Field().String())
		return err == nil
	})

	v.RegisterStructValidation(lineLevel, LineCommand{})
	v.RegisterStructValidation(entryLevel, CreateCommand{})

	return v
}

// lineLevel requires non-negative amounts with exactly one side set.
func lineLevel(sl validator.StructLevel) {
	l := sl.Current().Interface().(LineCommand)

	if l.DebitAmount.IsNegative() {
		sl.ReportError(l.DebitAmount, "debit_amount", "DebitAmount", "gte_zero", "")
	}
	if l.CreditAmount.IsNegative() {
		sl.ReportError(l.CreditAmount, "credit_amount", "CreditAmount", "gte_zero", "")
	}
	if l.DebitAmount.IsPositive() == l.CreditAmount.IsPositive() {
		sl.ReportError(l.DebitAmount, "debit_amount", "DebitAmount", "one_side", "")
	}
}

// entryLevel requires debit and credit totals to balance.
func entryLevel(sl validator.StructLevel) {
	c := sl.Current().Interface().(CreateCommand)

	debit, credit := c.Totals()
	if debit.Sub(credit).Abs().GreaterThan(journal.BalanceTolerance) {
		sl.ReportError(c.Items, "items", "Items", "balanced", "")
	}
}

// Validate normalizes cmd and checks it. Failures wrap ErrInvalidCommand
// and name each offending field with its failed rule.
func (c *CreateCommand) Validate() error {
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	c.EntryDate = strings.TrimSpace(c.EntryDate)

	err := validate().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	return fmt.Errorf("%w: %s", ErrInvalidCommand, strings.Join(fieldErrors(verrs), "; "))
}

func fieldErrors(verrs validator.ValidationErrors) []string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "CreateCommand.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", field, fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, fe.Tag()))
	}
	sort.Strings(msgs)
	return msgs
}
