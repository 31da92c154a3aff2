package transform

import (
	"fmt"

	"github.com/dutchbay/dbmodel/internal/calculation"
	"github.com/dutchbay/dbmodel/internal/domain"
)

// SetParam replaces one numeric input.
type SetParam struct {
	Param string
	Value float64
}

func (sp *SetParam) Name() string {
	return "set_param"
}

func (sp *SetParam) Description() string {
	return fmt.Sprintf("Set %s to %g", sp.Param, sp.Value)
}

func (sp *SetParam) Validate(base domain.Params) error {
	if _, err := calculation.ParamValue(base, sp.Param); err != nil {
		return NewTransformError(sp.Name(), "validate", "unknown parameter", err)
	}
	return nil
}

func (sp *SetParam) Apply(base domain.Params) (domain.Params, error) {
	modified := base
	if err := calculation.SetParamValue(&modified, sp.Param, sp.Value); err != nil {
		return domain.Params{}, NewTransformError(sp.Name(), "apply", "cannot set parameter", err)
	}
	return modified, nil
}

// ScaleParam multiplies one numeric input, e.g. Factor 0.9 for a 10% cut.
type ScaleParam struct {
	Param  string
	Factor float64
}

func (s *ScaleParam) Name() string {
	return "scale_param"
}

func (s *ScaleParam) Description() string {
	return fmt.Sprintf("Scale %s by %+.1f%%", s.Param, (s.Factor-1)*100)
}

func (s *ScaleParam) Validate(base domain.Params) error {
	if s.Factor < 0 {
		return NewTransformError(s.Name(), "validate", fmt.Sprintf("factor cannot be negative, got %v", s.Factor), nil)
	}
	if _, err := calculation.ParamValue(base, s.Param); err != nil {
		return NewTransformError(s.Name(), "validate", "unknown parameter", err)
	}
	return nil
}

func (s *ScaleParam) Apply(base domain.Params) (domain.Params, error) {
	v, err := calculation.ParamValue(base, s.Param)
	if err != nil {
		return domain.Params{}, NewTransformError(s.Name(), "apply", "unknown parameter", err)
	}
	modified := base
	_ = calculation.SetParamValue(&modified, s.Param, v*s.Factor)
	return modified, nil
}

// ShiftParam adds Delta to one numeric input, e.g. +0.03 on fx_depr.
type ShiftParam struct {
	Param string
	Delta float64
}

func (s *ShiftParam) Name() string {
	return "shift_param"
}

func (s *ShiftParam) Description() string {
	return fmt.Sprintf("Shift %s by %+g", s.Param, s.Delta)
}

func (s *ShiftParam) Validate(base domain.Params) error {
	if _, err := calculation.ParamValue(base, s.Param); err != nil {
		return NewTransformError(s.Name(), "validate", "unknown parameter", err)
	}
	return nil
}

func (s *ShiftParam) Apply(base domain.Params) (domain.Params, error) {
	v, err := calculation.ParamValue(base, s.Param)
	if err != nil {
		return domain.Params{}, NewTransformError(s.Name(), "apply", "unknown parameter", err)
	}
	modified := base
	_ = calculation.SetParamValue(&modified, s.Param, v+s.Delta)
	return modified, nil
}

// SetAmortization switches the repayment profile. A zero TargetDSCR keeps
// the base target.
type SetAmortization struct {
	Style      domain.AmortizationStyle
	TargetDSCR float64
}

func (sa *SetAmortization) Name() string {
	return "set_amortization"
}

func (sa *SetAmortization) Description() string {
	if sa.Style == domain.AmortizationSculpted && sa.TargetDSCR > 0 {
		return fmt.Sprintf("Sculpt repayments at a %.2fx DSCR", sa.TargetDSCR)
	}
	return fmt.Sprintf("Use %s amortization", sa.Style)
}

func (sa *SetAmortization) Validate(base domain.Params) error {
	switch sa.Style {
	case domain.AmortizationLevel, domain.AmortizationSculpted:
	default:
		return NewTransformError(sa.Name(), "validate", fmt.Sprintf("unknown amortization style %q", sa.Style), nil)
	}
	if sa.TargetDSCR < 0 {
		return NewTransformError(sa.Name(), "validate", "target DSCR cannot be negative", nil)
	}
	return nil
}

func (sa *SetAmortization) Apply(base domain.Params) (domain.Params, error) {
	modified := base
	modified.Debt.Style = sa.Style
	if sa.TargetDSCR > 0 {
		modified.Debt.TargetDSCR = sa.TargetDSCR
	}
	return modified, nil
}

// SetGracePolicy chooses how interest accrued during grace is treated.
type SetGracePolicy struct {
	Policy domain.GracePolicy
}

func (sg *SetGracePolicy) Name() string {
	return "set_grace_policy"
}

func (sg *SetGracePolicy) Description() string {
	if sg.Policy == domain.GraceCapitalize {
		return "Capitalize interest during grace"
	}
	return "Pay interest only during grace"
}

func (sg *SetGracePolicy) Validate(base domain.Params) error {
	switch sg.Policy {
	case domain.GraceInterestOnly, domain.GraceCapitalize:
		return nil
	}
	return NewTransformError(sg.Name(), "validate", fmt.Sprintf("unknown grace policy %q", sg.Policy), nil)
}

func (sg *SetGracePolicy) Apply(base domain.Params) (domain.Params, error) {
	modified := base
	modified.Debt.GracePolicy = sg.Policy
	return modified, nil
}
