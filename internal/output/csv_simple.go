package output

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// SummaryHeader is the column order of summary rows in CSV outputs
var SummaryHeader = []string{
	"scenario", "equity_irr", "project_irr", "npv", "min_dscr", "avg_dscr", "year1_dscr", "llcr", "plcr",
}

// SummaryRecord renders one summary row matching SummaryHeader. Undefined
// IRRs and ratios are empty; an infinite DSCR is "inf".
func SummaryRecord(name string, s domain.Summary) []string {
	return []string{
		name,
		optional(s.EquityIRR),
		optional(s.ProjectIRR),
		strconv.FormatFloat(s.NPV, 'f', 2, 64),
		FormatDSCR(s.MinDSCR),
		FormatDSCR(s.AvgDSCR),
		optional(s.Year1DSCR),
		optional(s.LLCR),
		optional(s.PLCR),
	}
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}

// CSVSummarizer implements the simple summary CSV output (one row).
type CSVSummarizer struct{}

func (c CSVSummarizer) Name() string { return "csv" }

func (c CSVSummarizer) Format(result *domain.ModelResult) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(SummaryHeader); err != nil {
		return nil, err
	}
	if err := w.Write(SummaryRecord("baseline", result.Summary())); err != nil {
		return nil, err
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// DetailedCSVFormatter writes the annual projection, one row per year
type DetailedCSVFormatter struct{}

func (d DetailedCSVFormatter) Name() string { return "detailed-csv" }

func (d DetailedCSVFormatter) Format(result *domain.ModelResult) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := WriteAnnualCSV(buf, result.Annual); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var annualHeader = []string{
	"year", "fx_rate", "production_mwh", "revenue_usd", "opex_usd", "sscl_usd", "ebit_usd",
	"interest_usd", "principal_usd", "ebt_usd", "tax_usd", "cfads_usd", "equity_fcf_usd",
	"debt_service_usd", "dscr",
}

// WriteAnnualCSV writes the annual rows with a header. Years without debt
// service leave the dscr cell empty.
func WriteAnnualCSV(w io.Writer, rows []domain.AnnualRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(annualHeader); err != nil {
		return err
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	for _, r := range rows {
		dscr := ""
		if r.DSCR != nil {
			dscr = strconv.FormatFloat(*r.DSCR, 'f', 6, 64)
		}
		record := []string{
			strconv.Itoa(r.Year),
			strconv.FormatFloat(r.FXRate, 'f', 4, 64),
			f(r.ProductionMWh),
			f(r.RevenueUSD),
			f(r.OpexUSD),
			f(r.SSCLUSD),
			f(r.EBITUSD),
			f(r.InterestUSD),
			f(r.PrincipalUSD),
			f(r.EBTUSD),
			f(r.TaxUSD),
			f(r.CFADSUSD),
			f(r.EquityFCFUSD),
			f(r.DebtServiceUSD),
			dscr,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
