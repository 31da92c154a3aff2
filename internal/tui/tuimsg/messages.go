// Package tuimsg holds the messages exchanged between the root TUI model
// and its scenes, kept apart to avoid an import cycle.
package tuimsg

import (
	"github.com/dutchbay/dbmodel/internal/compare"
	"github.com/dutchbay/dbmodel/internal/domain"
	"github.com/dutchbay/dbmodel/internal/optimize"
)

// ParamsLoadedMsg signals the starting parameters are ready
type ParamsLoadedMsg struct {
	Params domain.Params
	Source string // file path, empty for the built-in baseline
}

// ErrorMsg displays an error to the user
type ErrorMsg struct {
	Err error
}

// ParamsChangedMsg carries the parameters after a slider moved
type ParamsChangedMsg struct {
	Params domain.Params
}

// CalculationCompleteMsg signals a model run has finished
type CalculationCompleteMsg struct {
	Result *domain.ModelResult
	Err    error
}

// ComparisonStartedMsg asks for the built-in cases to be run
type ComparisonStartedMsg struct {
	Templates []string // empty means every built-in template
}

// ComparisonCompleteMsg signals a comparison has finished
type ComparisonCompleteMsg struct {
	Set *compare.ComparisonSet
	Err error
}

// OptimizationStartedMsg asks for debt sizing and the Pareto grid
type OptimizationStartedMsg struct {
	TargetDSCR float64
}

// OptimizationCompleteMsg signals an optimization has finished
type OptimizationCompleteMsg struct {
	Sizing *optimize.DebtSizingResult
	Pareto *optimize.ParetoResult
	Err    error
}

// SaveParamsMsg asks for the current parameters to be written to Filename
type SaveParamsMsg struct {
	Filename string
}

// SaveCompleteMsg signals a save operation has finished
type SaveCompleteMsg struct {
	Filename string
	Err      error
}
