package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dutchbay/dbmodel/internal/calculation"
	"github.com/dutchbay/dbmodel/internal/compare"
	"github.com/dutchbay/dbmodel/internal/config"
	"github.com/dutchbay/dbmodel/internal/domain"
	"github.com/dutchbay/dbmodel/internal/optimize"
	"github.com/dutchbay/dbmodel/internal/output"
	"github.com/dutchbay/dbmodel/internal/transform"
	"github.com/dutchbay/dbmodel/internal/tui/scenes"
	"github.com/dutchbay/dbmodel/internal/tui/tuimsg"
)

// DefaultSaveFile is where Ctrl+S writes edited inputs; the loaded file is
// never overwritten
const DefaultSaveFile = "dbmodel_params.yaml"

// Model represents the entire application state
type Model struct {
	// Navigation
	currentScene  Scene
	previousScene Scene

	// Terminal dimensions
	width  int
	height int

	// Inputs
	paramsPath string
	source     string
	params     domain.Params
	loaded     bool

	// Latest model run
	result *domain.ModelResult

	// Scene models
	parametersModel *scenes.ParametersModel
	resultsModel    *scenes.ResultsModel
	compareModel    *scenes.CompareModel
	optimizeModel   *scenes.OptimizeModel

	// Status line
	err    error
	notice string

	// Loading state
	loading        bool
	loadingMessage string
}

// NewModel creates a new application model. An empty paramsPath starts
// from the built-in baseline.
func NewModel(paramsPath string) Model {
	return Model{
		currentScene:    SceneParameters,
		previousScene:   SceneParameters,
		paramsPath:      paramsPath,
		parametersModel: scenes.NewParametersModel(),
		resultsModel:    scenes.NewResultsModel(),
		compareModel:    scenes.NewCompareModel(transform.CreateBuiltInTemplates().List()),
		optimizeModel:   scenes.NewOptimizeModel(),
		width:           80,
		height:          24,
		loading:         true,
		loadingMessage:  "Loading parameters...",
	}
}

// Init initializes the model (required by tea.Model interface)
func (m Model) Init() tea.Cmd {
	return loadParamsCmd(m.paramsPath)
}

// loadParamsCmd returns a command that loads the parameter file, or the
// baseline when path is empty
func loadParamsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return tuimsg.ParamsLoadedMsg{Params: domain.DefaultParams()}
		}
		p, err := config.NewInputParser().LoadParams(path)
		if err != nil {
			return tuimsg.ErrorMsg{Err: err}
		}
		return tuimsg.ParamsLoadedMsg{Params: p, Source: path}
	}
}

// calculateCmd returns a command that runs the model for p
func calculateCmd(p domain.Params) tea.Cmd {
	return func() tea.Msg {
		res, err := calculation.NewModelEngine().Run(p)
		return tuimsg.CalculationCompleteMsg{Result: res, Err: err}
	}
}

// compareCmd runs the named built-in cases against p
func compareCmd(p domain.Params, templates []string) tea.Cmd {
	return func() tea.Msg {
		engine := compare.NewCompareEngine(calculation.NewModelEngineWithDefaults(p))
		set, err := engine.Compare(context.Background(), map[string]any{}, compare.CompareOptions{
			BaseScenarioName: "base",
			Templates:        templates,
		})
		return tuimsg.ComparisonCompleteMsg{Set: set, Err: err}
	}
}

// optimizeCmd sizes debt against target and evaluates the default grid
func optimizeCmd(p domain.Params, target float64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		solver := optimize.NewDefaultSolver(calculation.NewModelEngineWithDefaults(p))
		raw := map[string]any{}
		sizing, err := solver.MaxDebtForDSCR(ctx, raw, target)
		if err != nil {
			return tuimsg.OptimizationCompleteMsg{Err: fmt.Errorf("debt sizing failed: %w", err)}
		}
		pareto, err := solver.Pareto(ctx, raw, optimize.DefaultGrid())
		if err != nil {
			return tuimsg.OptimizationCompleteMsg{Err: fmt.Errorf("pareto search failed: %w", err)}
		}
		return tuimsg.OptimizationCompleteMsg{Sizing: sizing, Pareto: pareto}
	}
}

// saveCmd writes p as a YAML parameter file
func saveCmd(p domain.Params, filename string) tea.Cmd {
	return func() tea.Msg {
		return tuimsg.SaveCompleteMsg{Filename: filename, Err: output.SaveParams(p, filename)}
	}
}

// saveTarget returns the file a save request writes to
func (m Model) saveTarget(requested string) string {
	if requested != "" {
		return requested
	}
	return DefaultSaveFile
}
