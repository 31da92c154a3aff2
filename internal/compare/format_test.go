package compare

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

func testComparisonSet() *ComparisonSet {
	return &ComparisonSet{
		BaseScenarioName: "Base Scenario",
		ConfigPath:       "/path/to/params.yaml",
		CovenantDSCR:     1.2,
		BaseResult: &ComparisonResult{
			ScenarioName: "Base Scenario",
			EquityIRR:    ptr(0.15),
			ProjectIRR:   ptr(0.11),
			NPV:          decimal.NewFromInt(5_000_000),
			MinDSCR:      ptr(1.35),
			AvgDSCR:      ptr(1.6),
			DebtUSD:      decimal.NewFromInt(108_500_000),
		},
		AlternativeResults: []ComparisonResult{
			{
				ScenarioName:   "Alternative 1",
				Description:    "Tariff 10% below base",
				EquityIRR:      ptr(0.12),
				ProjectIRR:     ptr(0.09),
				NPV:            decimal.NewFromInt(-2_000_000),
				MinDSCR:        ptr(1.1),
				AvgDSCR:        ptr(1.3),
				EquityIRRDiff:  ptr(-0.03),
				MinDSCRDiff:    ptr(-0.25),
				NPVDiff:        decimal.NewFromInt(-7_000_000),
				NPVPctFromBase: decimal.NewFromInt(-140),
				BreachesCov:    true,
			},
			{
				ScenarioName: "All Equity",
				ProjectIRR:   ptr(0.11),
				NPV:          decimal.NewFromInt(5_000_000),
			},
		},
		Recommendations: []string{
			"Covenant Breach: Alternative 1 falls to 1.10x, below the 1.20x lock-up",
		},
	}
}

func TestTableFormatter_Format(t *testing.T) {
	formatter := &TableFormatter{}

	result := formatter.Format(testComparisonSet())

	for _, want := range []string{
		"PROJECT FINANCE SCENARIO COMPARISON",
		"Base Scenario: Base Scenario",
		"Parameters:    /path/to/params.yaml",
		"DSCR Covenant: 1.20x",
		"Base Scenario (base)",
		"15.00%",
		"$5.00M",
		"!1.10x",
		"no debt",
		"Equity IRR:  -3.00 pts",
		"NPV:         -$7.00M (-140.0%)",
		"RECOMMENDATIONS",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("Expected %q in output:\n%s", want, result)
		}
	}
}

func TestTableFormatter_Format_EmptyAlternatives(t *testing.T) {
	compSet := testComparisonSet()
	compSet.AlternativeResults = nil
	compSet.Recommendations = nil

	result := (&TableFormatter{}).Format(compSet)

	if strings.Contains(result, "COMPARISON TO BASE") {
		t.Error("Expected no comparison section without alternatives")
	}
	if strings.Contains(result, "RECOMMENDATIONS") {
		t.Error("Expected no recommendations section")
	}
}

func TestTableFormatter_FormatCompact(t *testing.T) {
	result := (&TableFormatter{}).FormatCompact(testComparisonSet())

	if result != "Base: Base Scenario | Alternative 1: -3.00 pts | All Equity: n/a" {
		t.Errorf("Unexpected compact output: %s", result)
	}
}

func TestTableFormatter_formatDecimal(t *testing.T) {
	tf := &TableFormatter{}

	tests := []struct {
		in   int64
		want string
	}{
		{999, "999"},
		{12_500, "12.5K"},
		{-3_250_000, "-3.25M"},
	}
	for _, tt := range tests {
		if got := tf.formatDecimal(decimal.NewFromInt(tt.in)); got != tt.want {
			t.Errorf("formatDecimal(%d) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestCSVFormatter_Format(t *testing.T) {
	result, err := (&CSVFormatter{}).Format(testComparisonSet())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(result), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines (header + 3 rows), got %d", len(lines))
	}

	if !strings.HasPrefix(lines[0], "Scenario,Type,Equity IRR") {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Base Scenario,base,0.150000,0.110000,5000000.00,1.3500") {
		t.Errorf("Unexpected base row: %s", lines[1])
	}
	if !strings.HasSuffix(lines[2], ",true") {
		t.Errorf("Expected covenant breach flag: %s", lines[2])
	}
	if !strings.HasPrefix(lines[3], "All Equity,alternative,,0.110000") {
		t.Errorf("Expected empty cells for undefined metrics: %s", lines[3])
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		result, err := (&JSONFormatter{Pretty: pretty}).Format(testComparisonSet())
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal([]byte(result), &decoded); err != nil {
			t.Fatalf("Expected valid JSON, got: %v", err)
		}
		if decoded["baseScenarioName"] != "Base Scenario" {
			t.Errorf("Unexpected base name: %v", decoded["baseScenarioName"])
		}
		if pretty && !strings.Contains(result, "\n  ") {
			t.Error("Expected indented output")
		}
	}
}
