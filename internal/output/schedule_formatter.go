package output

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// ScheduleFormatter defines a formatter for senior debt schedules
type ScheduleFormatter interface {
	FormatSchedule(rows []domain.AmortizationRow) (string, error)
	Name() string
}

// NewScheduleFormatter creates a schedule formatter based on the format name
func NewScheduleFormatter(format string) ScheduleFormatter {
	switch strings.ToLower(format) {
	case "table":
		return &ScheduleTableFormatter{}
	case "json":
		return &ScheduleJSONFormatter{}
	default:
		return &ScheduleTableFormatter{}
	}
}

// ScheduleTableFormatter formats a debt schedule as a table
type ScheduleTableFormatter struct{}

func (f *ScheduleTableFormatter) Name() string {
	return "table"
}

func (f *ScheduleTableFormatter) FormatSchedule(rows []domain.AmortizationRow) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("schedule is empty")
	}
	return f.format(rows), nil
}

func (f *ScheduleTableFormatter) format(rows []domain.AmortizationRow) string {
	var output strings.Builder

	output.WriteString("SENIOR DEBT SCHEDULE (USD)\n")
	output.WriteString(strings.Repeat("-", 81) + "\n")
	output.WriteString(fmt.Sprintf("%4s %16s %14s %14s %14s %16s\n",
		"Year", "Opening", "Interest", "Principal", "Capitalized", "Closing"))

	totalInterest, totalPrincipal := decimal.Zero, decimal.Zero
	for _, r := range rows {
		interest := decimal.NewFromFloat(r.Interest)
		principal := decimal.NewFromFloat(r.Principal)
		totalInterest = totalInterest.Add(interest)
		totalPrincipal = totalPrincipal.Add(principal)

		output.WriteString(fmt.Sprintf("%4d %16s %14s %14s %14s %16s\n",
			r.Year,
			decimal.NewFromFloat(r.OpeningBalance).StringFixed(0),
			interest.StringFixed(0),
			principal.StringFixed(0),
			decimal.NewFromFloat(r.Capitalized).StringFixed(0),
			decimal.NewFromFloat(r.ClosingBalance).StringFixed(0)))
	}

	output.WriteString(strings.Repeat("-", 81) + "\n")
	output.WriteString(fmt.Sprintf("%4s %16s %14s %14s\n", "Tot", "", totalInterest.StringFixed(0), totalPrincipal.StringFixed(0)))

	return output.String()
}

// ScheduleJSONFormatter formats a debt schedule as JSON
type ScheduleJSONFormatter struct{}

func (f *ScheduleJSONFormatter) Name() string {
	return "json"
}

func (f *ScheduleJSONFormatter) FormatSchedule(rows []domain.AmortizationRow) (string, error) {
	if rows == nil {
		rows = []domain.AmortizationRow{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
