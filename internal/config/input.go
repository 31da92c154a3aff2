package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	hjson "github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v3"

	"github.com/dutchbay/dbmodel/internal/calculation"
	"github.com/dutchbay/dbmodel/internal/domain"
)

// Format is a parameter file encoding
type Format string

const (
	FormatYAML  Format = "yaml"
	FormatJSON  Format = "json"
	FormatHJSON Format = "hjson"
)

// FormatFromPath picks the encoding from the file extension, defaulting to YAML
func FormatFromPath(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FormatJSON
	case ".hjson":
		return FormatHJSON
	default:
		return FormatYAML
	}
}

// ValidationError collects every problem found in one parameter mapping
type ValidationError struct {
	Where    string
	Problems []error
}

func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		lines[i] = p.Error()
	}
	return "Scenario validation failed:\n - " + strings.Join(lines, "\n - ")
}

func (e *ValidationError) Unwrap() error {
	return errors.Join(e.Problems...)
}

// InputParser handles parsing and validation of parameter files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile reads a YAML, JSON or HJSON parameter file into a raw mapping
func (ip *InputParser) LoadFromFile(filename string) (map[string]any, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	raw, err := ip.Parse(data, FormatFromPath(filename))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return raw, nil
}

// Parse decodes data into a raw parameter mapping. An empty document
// yields an empty mapping.
func (ip *InputParser) Parse(data []byte, format Format) (map[string]any, error) {
	raw := map[string]any{}
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &raw)
	case FormatHJSON:
		err = hjson.Unmarshal(data, &raw)
	default:
		var doc any
		if err = yaml.Unmarshal(data, &doc); err == nil && doc != nil {
			m, ok := doc.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("parameter YAML must be a mapping")
			}
			raw = m
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", format, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// ValidateParams checks raw against the schema and the composite
// constraints, returning a normalised copy with numbers as float64 (ints
// for integer keys) and the nested debt mapping normalised the same way.
// All problems are reported together.
func (ip *InputParser) ValidateParams(raw map[string]any, where string) (map[string]any, error) {
	if where == "" {
		where = "params"
	}
	out := make(map[string]any, len(raw))
	var problems []error

	for _, key := range sortedKeys(raw) {
		value := raw[key]
		if key == "debt" {
			debt, errs := validateDebt(value, where+".debt")
			problems = append(problems, errs...)
			if debt != nil {
				out["debt"] = debt
			}
			continue
		}
		spec, ok := ParamSchema[key]
		if !ok {
			problems = append(problems, fmt.Errorf("[%s] unknown parameter '%s'", where, key))
			continue
		}
		v, err := coerce(spec, value)
		if err != nil {
			problems = append(problems, fmt.Errorf("[%s.%s] %w", where, key, err))
			continue
		}
		out[key] = v
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Where: where, Problems: problems}
	}

	p, err := calculation.DecodeParams(domain.DefaultParams(), out)
	if err != nil {
		return nil, err
	}
	for _, c := range CompositeConstraints {
		if !c.Check(p) {
			problems = append(problems, fmt.Errorf("[%s] %s", where, c.Message))
		}
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Where: where, Problems: problems}
	}
	return out, nil
}

// LoadParams reads, validates and decodes a parameter file over the
// baseline defaults.
func (ip *InputParser) LoadParams(filename string) (domain.Params, error) {
	raw, err := ip.LoadFromFile(filename)
	if err != nil {
		return domain.Params{}, err
	}
	clean, err := ip.ValidateParams(raw, filepath.Base(filename))
	if err != nil {
		return domain.Params{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	p, err := calculation.DecodeParams(domain.DefaultParams(), clean)
	if err != nil {
		return domain.Params{}, err
	}
	if err := p.Validate(); err != nil {
		return domain.Params{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return p, nil
}

func validateDebt(value any, where string) (map[string]any, []error) {
	raw, ok := value.(map[string]any)
	if !ok {
		return nil, []error{fmt.Errorf("[%s] expected a mapping, got %T", where, value)}
	}
	out := make(map[string]any, len(raw))
	var problems []error
	for _, key := range sortedKeys(raw) {
		spec, ok := DebtSchema[key]
		if !ok {
			problems = append(problems, fmt.Errorf("[%s] unknown debt field '%s'", where, key))
			continue
		}
		v, err := coerce(spec, raw[key])
		if err != nil {
			problems = append(problems, fmt.Errorf("[%s.%s] %w", where, key, err))
			continue
		}
		out[key] = v
	}
	return out, problems
}

func coerce(spec FieldSpec, value any) (any, error) {
	switch spec.Kind {
	case KindBool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			if b, err := strconv.ParseBool(strings.ToLower(v)); err == nil {
				return b, nil
			}
		}
		return nil, fmt.Errorf("expected boolean (true/false), got %v", value)
	case KindEnum:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected one of %s, got %v", strings.Join(spec.Values, ", "), value)
		}
		for _, allowed := range spec.Values {
			if s == allowed {
				return s, nil
			}
		}
		return nil, fmt.Errorf("expected one of %s, got %q", strings.Join(spec.Values, ", "), s)
	}

	f, err := toFloat(value)
	if err != nil {
		return nil, err
	}
	if f < spec.Min || f > spec.Max {
		return nil, fmt.Errorf("%v outside allowed range [%v, %v]", f, spec.Min, spec.Max)
	}
	if spec.Kind == KindInt {
		return int(math.Round(f)), nil
	}
	return f, nil
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("expected a finite number, got %v", v)
		}
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got string %q", v)
		}
		return toFloat(f)
	}
	return 0, fmt.Errorf("expected number, got %T", value)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
