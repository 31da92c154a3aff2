package transform

import (
	"fmt"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// ParamsTransform defines the interface for all parameter transformations.
// Transforms are composable operations that derive an alternative case from
// a base case, used by scenario comparison and the interactive explorer.
type ParamsTransform interface {
	// Apply returns a modified copy of base
	Apply(base domain.Params) (domain.Params, error)

	// Name returns a short identifier for this transform (e.g., "scale_param")
	Name() string

	// Description returns a human-readable description of what this transform does
	Description() string

	// Validate checks the transform against base without applying it
	Validate(base domain.Params) error
}

// ApplyTransforms applies a sequence of transforms to base in order, each
// receiving the output of the previous one. base itself is never modified.
func ApplyTransforms(base domain.Params, transforms []ParamsTransform) (domain.Params, error) {
	current := base

	for i, transform := range transforms {
		if transform == nil {
			return domain.Params{}, fmt.Errorf("transform at index %d is nil", i)
		}

		if err := transform.Validate(current); err != nil {
			return domain.Params{}, fmt.Errorf("transform %s validation failed: %w", transform.Name(), err)
		}

		next, err := transform.Apply(current)
		if err != nil {
			return domain.Params{}, fmt.Errorf("transform %s failed: %w", transform.Name(), err)
		}

		current = next
	}

	return current, nil
}

// TransformError represents an error that occurred during transformation.
type TransformError struct {
	TransformName string
	Operation     string
	Reason        string
	Err           error
}

func (e *TransformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transform %s (%s): %s: %v", e.TransformName, e.Operation, e.Reason, e.Err)
	}
	return fmt.Sprintf("transform %s (%s): %s", e.TransformName, e.Operation, e.Reason)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// NewTransformError creates a new TransformError.
func NewTransformError(transformName, operation, reason string, err error) error {
	return &TransformError{
		TransformName: transformName,
		Operation:     operation,
		Reason:        reason,
		Err:           err,
	}
}
