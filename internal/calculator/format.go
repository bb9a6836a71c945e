package calculator

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/mmynk/settleup/internal/currency"
	"github.com/mmynk/settleup/pkg/money"
)

// Formatter renders amounts and settlement statements for one locale.
type Formatter struct {
	printer         *message.Printer
	symbolFirst     bool
	defaultCurrency string
}

// NewFormatter creates a Formatter for the given locale. defaultCurrency is
// used for transactions that do not carry their own currency.
func NewFormatter(tag language.Tag, defaultCurrency string) *Formatter {
	base, _ := tag.Base()
	return &Formatter{
		printer:         message.NewPrinter(tag),
		symbolFirst:     base.String() == "en",
		defaultCurrency: defaultCurrency,
	}
}

// FormatAmount renders amount with the locale's separators, the currency's
// own number of minor digits and its symbol.
func (f *Formatter) FormatAmount(amount money.Amount, currencyCode string) string {
	if currencyCode == "" {
		currencyCode = f.defaultCurrency
	}
	symbol := currency.Symbol(currencyCode)
	digits := f.printer.Sprint(number.Decimal(amount.Abs().Float64(), number.Scale(currency.Digits(currencyCode))))

	sign := ""
	if amount < 0 {
		sign = "-"
	}
	if f.symbolFirst {
		return sign + symbol + digits
	}
	return fmt.Sprintf("%s%s %s", sign, digits, symbol)
}

// FormatTransactionDescription renders "{from} owes {amount} to {to}".
func (f *Formatter) FormatTransactionDescription(tx Transaction) string {
	return fmt.Sprintf("%s owes %s to %s", tx.FromName, f.FormatAmount(tx.Amount, tx.Currency), tx.ToName)
}
