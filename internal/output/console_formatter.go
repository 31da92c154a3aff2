package output

import (
	"bytes"
	"fmt"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// ConsoleFormatter prints the headline metrics only
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console-lite" }

func (c ConsoleFormatter) Format(result *domain.ModelResult) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, "PROJECT FINANCE SUMMARY")
	fmt.Fprintln(&buf, "=======================")
	writeSummary(&buf, result)

	return buf.Bytes(), nil
}

func writeSummary(buf *bytes.Buffer, result *domain.ModelResult) {
	p := result.Params
	fmt.Fprintf(buf, "Capex:            %s\n", FormatMillions(p.TotalCapex))
	fmt.Fprintf(buf, "Debt / Equity:    %s / %s (%.0f%% gearing)\n", FormatMillions(result.Debt), FormatMillions(result.Equity), p.Debt.DebtRatio*100)
	fmt.Fprintf(buf, "Equity IRR:       %s\n", FormatRate(result.EquityIRR))
	fmt.Fprintf(buf, "Project IRR:      %s\n", FormatRate(result.ProjectIRR))
	fmt.Fprintf(buf, "NPV @ %.0f%%:       %s\n", p.DiscountRate*100, FormatMillions(result.NPV))
	if result.HasDebtService() {
		fmt.Fprintf(buf, "Min / Avg DSCR:   %.2fx / %.2fx\n", result.MinDSCR, result.AvgDSCR)
	} else {
		fmt.Fprintln(buf, "Min / Avg DSCR:   n/a (no debt service)")
	}
	fmt.Fprintf(buf, "Year-1 DSCR:      %s\n", FormatRatio(result.Year1DSCR))
	fmt.Fprintf(buf, "LLCR / PLCR:      %s / %s\n", FormatRatio(result.LLCR), FormatRatio(result.PLCR))
}
