package report

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultCurrency is the ISO code used when none is configured.
const DefaultCurrency = "PKR"

// MoneyFormatter renders amounts with a currency symbol and digit grouping.
type MoneyFormatter struct {
	symbol  string
	printer *message.Printer
}

// NewMoneyFormatter builds a formatter for an ISO 4217 code.
func NewMoneyFormatter(code string) (MoneyFormatter, error) {
	if code == "" {
		code = DefaultCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return MoneyFormatter{}, fmt.Errorf("report: currency %q: %w", code, err)
	}
	printer := message.NewPrinter(language.English)
	return MoneyFormatter{symbol: printer.Sprint(currency.Symbol(unit)), printer: printer}, nil
}

// Format renders d with two decimals, e.g. "PKR 38,000.00".
func (f MoneyFormatter) Format(d decimal.Decimal) string {
	return f.symbol + " " + f.printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}
