package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// MarkdownFormatter renders the result as GitHub-flavoured Markdown
type MarkdownFormatter struct{}

func (m MarkdownFormatter) Name() string { return "markdown" }

func (m MarkdownFormatter) Format(result *domain.ModelResult) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, "# Project Finance Summary")
	fmt.Fprintln(&buf)
	buf.WriteString(MarkdownSummaryTable(result))
	fmt.Fprintln(&buf)
	fmt.Fprintln(&buf, "## Annual Cash Flows")
	fmt.Fprintln(&buf)
	buf.WriteString(MarkdownAnnualTable(result.Annual))

	return buf.Bytes(), nil
}

// MarkdownSummaryTable renders the headline metrics as a two-column table
func MarkdownSummaryTable(result *domain.ModelResult) string {
	var sb strings.Builder
	rows := [][2]string{
		{"Total capex", FormatMillions(result.Params.TotalCapex)},
		{"Senior debt", FormatMillions(result.Debt)},
		{"Sponsor equity", FormatMillions(result.Equity)},
		{"Equity IRR", FormatRate(result.EquityIRR)},
		{"Project IRR", FormatRate(result.ProjectIRR)},
		{fmt.Sprintf("NPV @ %.0f%%", result.Params.DiscountRate*100), FormatMillions(result.NPV)},
	}
	if result.HasDebtService() {
		rows = append(rows,
			[2]string{"Minimum DSCR", fmt.Sprintf("%.2fx", result.MinDSCR)},
			[2]string{"Average DSCR", fmt.Sprintf("%.2fx", result.AvgDSCR)},
		)
	} else {
		rows = append(rows, [2]string{"DSCR", "n/a (no debt service)"})
	}
	rows = append(rows,
		[2]string{"Year-1 DSCR", FormatRatio(result.Year1DSCR)},
		[2]string{"LLCR", FormatRatio(result.LLCR)},
		[2]string{"PLCR", FormatRatio(result.PLCR)},
	)

	sb.WriteString("| Metric | Value |\n|---|---:|\n")
	for _, r := range rows {
		fmt.Fprintf(&sb, "| %s | %s |\n", r[0], r[1])
	}
	return sb.String()
}

// MarkdownAnnualTable renders the projection in millions of USD
func MarkdownAnnualTable(rows []domain.AnnualRow) string {
	var sb strings.Builder
	sb.WriteString("| Year | FX | Revenue | Opex | EBIT | Interest | Principal | Tax | CFADS | Equity FCF | DSCR |\n")
	sb.WriteString("|---:|---:|---:|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, r := range rows {
		dscr := "–"
		if r.DSCR != nil {
			dscr = fmt.Sprintf("%.2f", *r.DSCR)
		}
		fmt.Fprintf(&sb, "| %d | %.1f | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f | %s |\n",
			r.Year, r.FXRate,
			r.RevenueUSD/1e6, r.OpexUSD/1e6, r.EBITUSD/1e6,
			r.InterestUSD/1e6, r.PrincipalUSD/1e6, r.TaxUSD/1e6,
			r.CFADSUSD/1e6, r.EquityFCFUSD/1e6, dscr)
	}
	return sb.String()
}
