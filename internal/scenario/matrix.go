package scenario

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Scenario is a named raw parameter mapping
type Scenario struct {
	Name   string         `json:"name" yaml:"name"`
	Params map[string]any `json:"params" yaml:"params"`
}

// ParseMatrix reads a YAML (or JSON) document of the form
// scenarios: [{name, params}]. Unnamed entries become scenario_<n>.
func ParseMatrix(data []byte) ([]Scenario, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse matrix: %w", err)
	}
	list, ok := doc["scenarios"]
	if !ok || list == nil {
		return nil, nil
	}
	items, ok := list.([]any)
	if !ok {
		return nil, fmt.Errorf("matrix must contain 'scenarios: [ ... ]'")
	}

	out := make([]Scenario, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("scenarios[%d] must be a mapping with 'name' and 'params'", i)
		}
		sc := Scenario{Name: fmt.Sprintf("scenario_%d", i+1), Params: map[string]any{}}
		if name, ok := m["name"]; ok && name != nil {
			sc.Name = fmt.Sprint(name)
		}
		if p, ok := m["params"]; ok && p != nil {
			params, ok := p.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("scenarios[%d].params must be a mapping", i)
			}
			sc.Params = params
		}
		out = append(out, sc)
	}
	return out, nil
}
