package transform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// TransformRegistry provides a central registry for all available transforms.
// It enables creation of transforms from string parameters, useful for CLI commands.
type TransformRegistry struct {
	factories map[string]TransformFactory
}

// TransformFactory is a function that creates a transform from parameters.
type TransformFactory func(params map[string]string) (ParamsTransform, error)

// NewTransformRegistry creates a new registry with all built-in transforms registered.
func NewTransformRegistry() *TransformRegistry {
	registry := &TransformRegistry{
		factories: make(map[string]TransformFactory),
	}

	registry.Register("set", createSetParam)
	registry.Register("scale", createScaleParam)
	registry.Register("shift", createShiftParam)
	registry.Register("amortization", createSetAmortization)
	registry.Register("grace_policy", createSetGracePolicy)

	return registry
}

// Register adds a transform factory to the registry.
func (r *TransformRegistry) Register(name string, factory TransformFactory) {
	r.factories[name] = factory
}

// Create creates a transform by name with the given parameters.
func (r *TransformRegistry) Create(name string, params map[string]string) (ParamsTransform, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("unknown transform: %s", name)
	}

	return factory(params)
}

// List returns the names of all registered transforms in sorted order.
func (r *TransformRegistry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseTransformSpec parses a transform specification string.
// Format: "transform_name:param1=value1,param2=value2"
// Example: "scale:param=tariff_lkr_kwh,factor=0.9"
func (r *TransformRegistry) ParseTransformSpec(spec string) (ParamsTransform, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid transform spec format, expected 'name:params', got: %s", spec)
	}

	name := strings.TrimSpace(parts[0])
	paramsStr := strings.TrimSpace(parts[1])

	params := make(map[string]string)
	if paramsStr != "" {
		for _, paramPair := range strings.Split(paramsStr, ",") {
			kv := strings.SplitN(paramPair, "=", 2)
			if len(kv) != 2 {
				return nil, fmt.Errorf("invalid parameter format, expected 'key=value', got: %s", paramPair)
			}
			params[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}

	return r.Create(name, params)
}

// Factory functions for each transform

func requireParam(transform string, params map[string]string, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("%s requires '%s' parameter", transform, key)
	}
	return v, nil
}

func requireFloat(transform string, params map[string]string, key string) (float64, error) {
	s, err := requireParam(transform, params, key)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

func createSetParam(params map[string]string) (ParamsTransform, error) {
	name, err := requireParam("set", params, "param")
	if err != nil {
		return nil, err
	}
	value, err := requireFloat("set", params, "value")
	if err != nil {
		return nil, err
	}
	return &SetParam{Param: name, Value: value}, nil
}

func createScaleParam(params map[string]string) (ParamsTransform, error) {
	name, err := requireParam("scale", params, "param")
	if err != nil {
		return nil, err
	}
	factor, err := requireFloat("scale", params, "factor")
	if err != nil {
		return nil, err
	}
	return &ScaleParam{Param: name, Factor: factor}, nil
}

func createShiftParam(params map[string]string) (ParamsTransform, error) {
	name, err := requireParam("shift", params, "param")
	if err != nil {
		return nil, err
	}
	delta, err := requireFloat("shift", params, "delta")
	if err != nil {
		return nil, err
	}
	return &ShiftParam{Param: name, Delta: delta}, nil
}

func createSetAmortization(params map[string]string) (ParamsTransform, error) {
	style, err := requireParam("amortization", params, "style")
	if err != nil {
		return nil, err
	}
	t := &SetAmortization{Style: domain.AmortizationStyle(style)}
	if _, ok := params["target_dscr"]; ok {
		if t.TargetDSCR, err = requireFloat("amortization", params, "target_dscr"); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func createSetGracePolicy(params map[string]string) (ParamsTransform, error) {
	policy, err := requireParam("grace_policy", params, "policy")
	if err != nil {
		return nil, err
	}
	return &SetGracePolicy{Policy: domain.GracePolicy(policy)}, nil
}
