package transform

import (
	"sort"
	"strings"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// TemplateRegistry manages built-in stress and structuring cases
type TemplateRegistry struct {
	templates map[string]Template
}

// Template represents a named collection of transforms
type Template struct {
	Name        string
	Description string
	Transforms  []ParamsTransform
}

// NewTemplateRegistry creates an empty template registry
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]Template),
	}
}

// Register adds a template to the registry
func (tr *TemplateRegistry) Register(t Template) {
	tr.templates[strings.ToLower(t.Name)] = t
}

// Get retrieves a template by name (case-insensitive)
func (tr *TemplateRegistry) Get(name string) (Template, bool) {
	t, ok := tr.templates[strings.ToLower(name)]
	return t, ok
}

// List returns all registered template names in sorted order
func (tr *TemplateRegistry) List() []string {
	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateBuiltInTemplates creates a registry with the usual lender downside
// cases and alternative debt structures.
func CreateBuiltInTemplates() *TemplateRegistry {
	registry := NewTemplateRegistry()

	// Downside cases
	registry.Register(Template{
		Name:        "tariff_down_10",
		Description: "Tariff 10% below base",
		Transforms:  []ParamsTransform{&ScaleParam{Param: "tariff_lkr_kwh", Factor: 0.9}},
	})
	registry.Register(Template{
		Name:        "p90_yield",
		Description: "P90 energy yield (capacity factor 8% below P50)",
		Transforms:  []ParamsTransform{&ScaleParam{Param: "cf_p50", Factor: 0.92}},
	})
	registry.Register(Template{
		Name:        "capex_overrun_15",
		Description: "Capex overrun of 15%",
		Transforms:  []ParamsTransform{&ScaleParam{Param: "total_capex", Factor: 1.15}},
	})
	registry.Register(Template{
		Name:        "opex_up_20",
		Description: "Opex 20% above base",
		Transforms:  []ParamsTransform{&ScaleParam{Param: "opex_usd_mwh", Factor: 1.2}},
	})
	registry.Register(Template{
		Name:        "fx_stress",
		Description: "LKR depreciates 3 points faster every year",
		Transforms:  []ParamsTransform{&ShiftParam{Param: "fx_depr", Delta: 0.03}},
	})
	registry.Register(Template{
		Name:        "rate_up_100bp",
		Description: "Interest rate 100bp higher",
		Transforms:  []ParamsTransform{&ShiftParam{Param: "interest_rate", Delta: 0.01}},
	})
	registry.Register(Template{
		Name:        "combined_downside",
		Description: "P90 yield, 5% capex overrun and FX stress together",
		Transforms: []ParamsTransform{
			&ScaleParam{Param: "cf_p50", Factor: 0.92},
			&ScaleParam{Param: "total_capex", Factor: 1.05},
			&ShiftParam{Param: "fx_depr", Delta: 0.03},
		},
	})

	// Debt structures
	registry.Register(Template{
		Name:        "sculpted",
		Description: "Sculpted repayments at the base target DSCR",
		Transforms:  []ParamsTransform{&SetAmortization{Style: domain.AmortizationSculpted}},
	})
	registry.Register(Template{
		Name:        "capitalize_grace",
		Description: "Capitalize interest during grace",
		Transforms:  []ParamsTransform{&SetGracePolicy{Policy: domain.GraceCapitalize}},
	})
	registry.Register(Template{
		Name:        "gearing_80",
		Description: "80% debt",
		Transforms:  []ParamsTransform{&SetParam{Param: "debt_ratio", Value: 0.8}},
	})
	registry.Register(Template{
		Name:        "long_tenor",
		Description: "18-year tenor",
		Transforms:  []ParamsTransform{&SetParam{Param: "tenor_years", Value: 18}},
	})
	registry.Register(Template{
		Name:        "all_equity",
		Description: "No senior debt",
		Transforms:  []ParamsTransform{&SetParam{Param: "debt_ratio", Value: 0}},
	})

	return registry
}

// ApplyTemplate applies every transform of t to base
func ApplyTemplate(base domain.Params, t Template) (domain.Params, error) {
	return ApplyTransforms(base, t.Transforms)
}
