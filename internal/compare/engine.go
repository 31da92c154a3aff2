package compare

import (
	"context"
	"fmt"

	"github.com/dutchbay/dbmodel/internal/calculation"
	"github.com/dutchbay/dbmodel/internal/transform"
)

// CompareEngine orchestrates scenario comparison
type CompareEngine struct {
	Model             *calculation.ModelEngine
	MetricsCalculator *MetricsCalculator
	TemplateRegistry  *transform.TemplateRegistry
	TransformRegistry *transform.TransformRegistry
}

// NewCompareEngine creates a new comparison engine
func NewCompareEngine(model *calculation.ModelEngine) *CompareEngine {
	if model == nil {
		model = calculation.NewModelEngine()
	}
	return &CompareEngine{
		Model:             model,
		MetricsCalculator: NewMetricsCalculator(),
		TemplateRegistry:  transform.CreateBuiltInTemplates(),
		TransformRegistry: transform.NewTransformRegistry(),
	}
}

// CompareOptions configures comparison behavior
type CompareOptions struct {
	BaseScenarioName string   // Label for the base case
	Templates        []string // Built-in template names to apply
	Transforms       []string // Ad hoc transform specs, e.g. "scale:param=tariff_lkr_kwh,factor=0.9"
	CovenantDSCR     float64  // Zero uses DefaultCovenantDSCR
}

func (ce *CompareEngine) covenant(opt float64) float64 {
	if opt > 0 {
		return opt
	}
	return DefaultCovenantDSCR
}

// Compare runs the base parameters and one alternative per template or
// transform spec
func (ce *CompareEngine) Compare(
	ctx context.Context,
	base map[string]any,
	options CompareOptions,
) (*ComparisonSet, error) {
	if options.BaseScenarioName == "" {
		options.BaseScenarioName = "base"
	}
	ce.MetricsCalculator.CovenantDSCR = ce.covenant(options.CovenantDSCR)

	baseParams, err := calculation.DecodeParams(ce.Model.Defaults, base)
	if err != nil {
		return nil, err
	}

	baseRes, err := ce.Model.Run(baseParams)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate base scenario: %w", err)
	}
	baseResult := ce.MetricsCalculator.CalculateMetrics(options.BaseScenarioName, baseRes)

	type alternative struct {
		name, description string
		transforms        []transform.ParamsTransform
	}
	var alts []alternative

	for _, templateName := range options.Templates {
		template, ok := ce.TemplateRegistry.Get(templateName)
		if !ok {
			return nil, fmt.Errorf("template %s not found", templateName)
		}
		alts = append(alts, alternative{template.Name, template.Description, template.Transforms})
	}
	for _, spec := range options.Transforms {
		t, err := ce.TransformRegistry.ParseTransformSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid transform %q: %w", spec, err)
		}
		alts = append(alts, alternative{spec, t.Description(), []transform.ParamsTransform{t}})
	}

	alternatives := []ComparisonResult{}
	for _, alt := range alts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		modified, err := transform.ApplyTransforms(baseParams, alt.transforms)
		if err != nil {
			return nil, fmt.Errorf("failed to apply %s: %w", alt.name, err)
		}

		res, err := ce.Model.Run(modified)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate scenario %s: %w", alt.name, err)
		}

		altResult := ce.MetricsCalculator.CalculateMetrics(options.BaseScenarioName+"_"+alt.name, res)
		altResult.Description = alt.description
		altResult = ce.MetricsCalculator.CalculateComparison(altResult, baseResult)

		alternatives = append(alternatives, altResult)
	}

	compSet := &ComparisonSet{
		BaseScenarioName:   options.BaseScenarioName,
		BaseResult:         &baseResult,
		AlternativeResults: alternatives,
		CovenantDSCR:       ce.MetricsCalculator.CovenantDSCR,
	}
	compSet.Recommendations = GenerateRecommendations(compSet)

	return compSet, nil
}

// CompareScenarios compares explicit named scenarios (not using templates)
func (ce *CompareEngine) CompareScenarios(
	ctx context.Context,
	base Scenario,
	alternatives []Scenario,
	covenantDSCR float64,
) (*ComparisonSet, error) {
	ce.MetricsCalculator.CovenantDSCR = ce.covenant(covenantDSCR)

	baseRes, err := ce.Model.BuildFinancialModel(base.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate base scenario: %w", err)
	}
	baseResult := ce.MetricsCalculator.CalculateMetrics(base.Name, baseRes)

	results := []ComparisonResult{}
	for _, alt := range alternatives {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		res, err := ce.Model.BuildFinancialModel(alt.Params)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate scenario %s: %w", alt.Name, err)
		}

		altResult := ce.MetricsCalculator.CalculateMetrics(alt.Name, res)
		altResult = ce.MetricsCalculator.CalculateComparison(altResult, baseResult)
		results = append(results, altResult)
	}

	compSet := &ComparisonSet{
		BaseScenarioName:   base.Name,
		BaseResult:         &baseResult,
		AlternativeResults: results,
		CovenantDSCR:       ce.MetricsCalculator.CovenantDSCR,
	}
	compSet.Recommendations = GenerateRecommendations(compSet)

	return compSet, nil
}
