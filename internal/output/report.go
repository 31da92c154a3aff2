package output

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// GenerateReport writes result to w in the named format (or alias)
func GenerateReport(w io.Writer, result *domain.ModelResult, format string) error {
	f := GetFormatterByName(format)
	if f == nil {
		return fmt.Errorf("unsupported format: %s", format)
	}

	data, err := f.Format(result)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// SaveParams writes p as a YAML parameter file that LoadParams accepts
func SaveParams(p domain.Params, filename string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}

// FormatCurrency formats a decimal as currency
func FormatCurrency(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// FormatPercentage formats a decimal as percentage
func FormatPercentage(amount decimal.Decimal) string {
	return amount.StringFixed(2) + "%"
}

// FormatUSD formats a float amount as whole-dollar currency
func FormatUSD(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(0)
}

// FormatMillions formats a float amount in millions of USD
func FormatMillions(v float64) string {
	return "$" + decimal.NewFromFloat(v).Div(decimal.NewFromInt(1_000_000)).StringFixed(2) + "M"
}

// FormatRate renders a fraction as a percentage, "n/a" when undefined
func FormatRate(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return FormatPercentage(decimal.NewFromFloat(*v * 100))
}

// FormatDSCR renders a coverage ratio; the infinite no-debt sentinel
// renders as "inf"
func FormatDSCR(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// FormatRatio renders an optional ratio, "n/a" when undefined
func FormatRatio(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2fx", *v)
}
