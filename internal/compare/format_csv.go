package compare

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// CSVFormatter formats comparison results as CSV
type CSVFormatter struct{}

// Format generates CSV output for comparison results
func (cf *CSVFormatter) Format(compSet *ComparisonSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"Scenario",
		"Type",
		"Equity IRR",
		"Project IRR",
		"NPV",
		"Min DSCR",
		"Avg DSCR",
		"Debt",
		"Equity IRR Diff",
		"Min DSCR Diff",
		"NPV Diff from Base",
		"NPV % Change",
		"Covenant Breach",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	if err := writer.Write(cf.formatRow(compSet.BaseResult, "base")); err != nil {
		return "", err
	}

	for _, alt := range compSet.AlternativeResults {
		if err := writer.Write(cf.formatRow(&alt, "alternative")); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// formatRow formats a comparison result as a CSV row
func (cf *CSVFormatter) formatRow(result *ComparisonResult, scenarioType string) []string {
	return []string{
		result.ScenarioName,
		scenarioType,
		formatOptional(result.EquityIRR, 6),
		formatOptional(result.ProjectIRR, 6),
		result.NPV.StringFixed(2),
		formatOptional(result.MinDSCR, 4),
		formatOptional(result.AvgDSCR, 4),
		result.DebtUSD.StringFixed(2),
		formatOptional(result.EquityIRRDiff, 6),
		formatOptional(result.MinDSCRDiff, 4),
		result.NPVDiff.StringFixed(2),
		result.NPVPctFromBase.StringFixed(2),
		strconv.FormatBool(result.BreachesCov),
	}
}

// formatOptional renders nil as an empty cell
func formatOptional(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}
