package transform

import (
	"math"
	"testing"

	"github.com/dutchbay/dbmodel/internal/calculation"
	"github.com/dutchbay/dbmodel/internal/domain"
)

func TestTemplateRegistry_RegisterAndGet(t *testing.T) {
	registry := NewTemplateRegistry()

	template := Template{
		Name:        "test_template",
		Description: "A test template",
	}

	registry.Register(template)

	retrieved, ok := registry.Get("test_template")
	if !ok {
		t.Fatal("Expected to find template")
	}
	if retrieved.Name != template.Name {
		t.Errorf("Expected name %s, got %s", template.Name, retrieved.Name)
	}

	if _, ok = registry.Get("TEST_TEMPLATE"); !ok {
		t.Fatal("Expected case-insensitive lookup to work")
	}

	if _, ok = registry.Get("nonexistent"); ok {
		t.Error("Expected not to find nonexistent template")
	}
}

func TestCreateBuiltInTemplates(t *testing.T) {
	registry := CreateBuiltInTemplates()

	for _, name := range []string{"tariff_down_10", "p90_yield", "capex_overrun_15", "fx_stress", "sculpted", "capitalize_grace", "gearing_80", "all_equity"} {
		if _, ok := registry.Get(name); !ok {
			t.Errorf("Expected built-in template %s", name)
		}
	}
}

// Every built-in template must produce a case the model accepts.
func TestBuiltInTemplates_RunThroughModel(t *testing.T) {
	registry := CreateBuiltInTemplates()
	engine := calculation.NewModelEngine()
	base := domain.DefaultParams()

	for _, name := range registry.List() {
		tmpl, _ := registry.Get(name)
		params, err := ApplyTemplate(base, tmpl)
		if err != nil {
			t.Errorf("%s: apply failed: %v", name, err)
			continue
		}
		if _, err := engine.Run(params); err != nil {
			t.Errorf("%s: model failed: %v", name, err)
		}
	}
}

func TestBuiltInTemplates_Direction(t *testing.T) {
	registry := CreateBuiltInTemplates()
	engine := calculation.NewModelEngine()

	base, err := engine.Run(domain.DefaultParams())
	if err != nil {
		t.Fatalf("base run failed: %v", err)
	}

	for _, name := range []string{"tariff_down_10", "capex_overrun_15", "p90_yield"} {
		tmpl, _ := registry.Get(name)
		params, err := ApplyTemplate(domain.DefaultParams(), tmpl)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		res, err := engine.Run(params)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if res.EquityIRR == nil || *res.EquityIRR >= *base.EquityIRR {
			t.Errorf("%s: expected equity IRR below base %.4f", name, *base.EquityIRR)
		}
	}

	tmpl, _ := registry.Get("all_equity")
	params, _ := ApplyTemplate(domain.DefaultParams(), tmpl)
	res, err := engine.Run(params)
	if err != nil {
		t.Fatalf("all_equity: %v", err)
	}
	if !math.IsInf(res.MinDSCR, 1) {
		t.Errorf("Expected no DSCR without debt, got %v", res.MinDSCR)
	}
}
