package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// ConsoleVerboseFormatter renders the full lender view: assumptions,
// inputs, headline metrics, the annual cash flows and the debt schedule.
type ConsoleVerboseFormatter struct{}

func (c ConsoleVerboseFormatter) Name() string { return "console" }

func (c ConsoleVerboseFormatter) Format(result *domain.ModelResult) ([]byte, error) {
	var buf bytes.Buffer
	p := result.Params

	fmt.Fprintln(&buf, strings.Repeat("=", 81))
	fmt.Fprintln(&buf, "DETAILED PROJECT FINANCE ANALYSIS")
	fmt.Fprintln(&buf, strings.Repeat("=", 81))
	fmt.Fprintln(&buf)
	fmt.Fprintln(&buf, "KEY ASSUMPTIONS:")
	for _, a := range DefaultAssumptions {
		fmt.Fprintf(&buf, "• %s\n", a)
	}
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "INPUTS")
	fmt.Fprintln(&buf, "======")
	fmt.Fprintf(&buf, "  Plant:    %.1f MW, P50 capacity factor %.1f%%, degradation %.2f%%/yr, %d years\n",
		p.NameplateMW, p.CFP50*100, p.YearlyDegradation*100, p.ProjectLifeYears)
	fmt.Fprintf(&buf, "  Tariff:   %.2f LKR/kWh, FX %.1f LKR/USD depreciating %.1f%%/yr\n",
		p.TariffLKRkWh, p.FXInitial, p.FXDepr*100)
	fmt.Fprintf(&buf, "  Opex:     %.2f USD/MWh (%.0f%% USD at +%.1f%%, %.0f%% LKR at +%.1f%%)\n",
		p.OpexUSDMWh, p.OpexSplitUSD*100, p.OpexEscUSD*100, p.OpexSplitLKR*100, p.OpexEscLKR*100)
	fmt.Fprintf(&buf, "  Taxes:    SSCL %.1f%%, income tax %.0f%%\n", p.SSCLRate*100, p.TaxRate*100)
	fmt.Fprintf(&buf, "  Debt:     %.0f%% of capex, %d-year tenor, %d grace (%s), %.2f%% interest, %s repayment",
		p.Debt.DebtRatio*100, p.Debt.TenorYears, p.Debt.GraceYears, p.Debt.GracePolicy, p.Debt.InterestRate*100, p.Debt.Style)
	if p.Debt.Style == domain.AmortizationSculpted {
		fmt.Fprintf(&buf, " at %.2fx", p.Debt.TargetDSCR)
	}
	fmt.Fprintln(&buf)
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "RESULTS")
	fmt.Fprintln(&buf, "=======")
	writeSummary(&buf, result)
	fmt.Fprintln(&buf)

	writeAnnualTable(&buf, result.Annual)
	fmt.Fprintln(&buf)

	if len(result.Schedule) > 0 {
		fmt.Fprint(&buf, (&ScheduleTableFormatter{}).format(result.Schedule))
	}

	return buf.Bytes(), nil
}

// writeAnnualTable prints the projection in millions of USD
func writeAnnualTable(buf *bytes.Buffer, rows []domain.AnnualRow) {
	fmt.Fprintln(buf, "ANNUAL CASH FLOWS (USD millions)")
	fmt.Fprintln(buf, strings.Repeat("-", 81))
	fmt.Fprintf(buf, "%4s %8s %8s %8s %8s %8s %8s %8s %8s %7s\n",
		"Year", "FX", "Revenue", "Opex", "EBIT", "Interest", "Princ.", "CFADS", "Equity", "DSCR")
	for _, r := range rows {
		dscr := "-"
		if r.DSCR != nil {
			dscr = fmt.Sprintf("%.2f", *r.DSCR)
		}
		fmt.Fprintf(buf, "%4d %8.1f %8.2f %8.2f %8.2f %8.2f %8.2f %8.2f %8.2f %7s\n",
			r.Year, r.FXRate,
			r.RevenueUSD/1e6, r.OpexUSD/1e6, r.EBITUSD/1e6,
			r.InterestUSD/1e6, r.PrincipalUSD/1e6,
			r.CFADSUSD/1e6, r.EquityFCFUSD/1e6, dscr)
	}
}
