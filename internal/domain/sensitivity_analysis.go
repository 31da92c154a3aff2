package domain

// SensitivityParameter is an input to swing in a tornado or sweep. Low and
// High are absolute values; when both are zero the analyzer swings the base
// value by RelativeSwing (default 10%) in each direction.
type SensitivityParameter struct {
	Name          string  `yaml:"name" json:"name"`
	Low           float64 `yaml:"low" json:"low"`
	High          float64 `yaml:"high" json:"high"`
	RelativeSwing float64 `yaml:"relative_swing" json:"relative_swing"`
	Steps         int     `yaml:"steps" json:"steps"` // sweep only
	Description   string  `yaml:"description" json:"description"`
}

// TornadoMetric selects the output a tornado measures
type TornadoMetric string

const (
	MetricIRR  TornadoMetric = "irr"  // equity IRR
	MetricNPV  TornadoMetric = "npv"  // project NPV
	MetricDSCR TornadoMetric = "dscr" // minimum DSCR
)

// TornadoSort orders the bars of a tornado
type TornadoSort string

const (
	SortAbs  TornadoSort = "abs"  // largest absolute swing first
	SortAsc  TornadoSort = "asc"  // smallest swing first
	SortDesc TornadoSort = "desc" // largest signed swing first
)

// TornadoBar is one parameter's effect on the metric. A nil metric value
// means the metric is undefined at that input.
type TornadoBar struct {
	Parameter   string   `json:"parameter"`
	LowInput    float64  `json:"low_input"`
	HighInput   float64  `json:"high_input"`
	LowMetric   *float64 `json:"low_metric"`
	HighMetric  *float64 `json:"high_metric"`
	Swing       float64  `json:"swing"` // high minus low, 0 when either side is undefined
	AbsSwing    float64  `json:"abs_swing"`
	Description string   `json:"description,omitempty"`
}

// TornadoResult is a full tornado analysis
type TornadoResult struct {
	Metric     TornadoMetric `json:"metric"`
	Sort       TornadoSort   `json:"sort"`
	BaseMetric *float64      `json:"base_metric"`
	Bars       []TornadoBar  `json:"bars"`
}

// MostSensitive returns the parameter with the largest absolute swing
func (tr TornadoResult) MostSensitive() string {
	best, name := -1.0, ""
	for _, b := range tr.Bars {
		if b.AbsSwing > best {
			best, name = b.AbsSwing, b.Parameter
		}
	}
	return name
}

// SweepPoint is one model run of a single-parameter sweep
type SweepPoint struct {
	Value     float64  `json:"value"`
	EquityIRR *float64 `json:"equity_irr"`
	NPV       float64  `json:"npv"`
	MinDSCR   *float64 `json:"min_dscr"`
}

// SweepResult holds a single-parameter sweep
type SweepResult struct {
	Parameter SensitivityParameter `json:"parameter"`
	Points    []SweepPoint         `json:"points"`
}
