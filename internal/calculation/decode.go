package calculation

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// DecodeParams merges raw over defaults. Keys absent from raw keep their
// default, the nested "debt" mapping merges field by field, and unknown
// keys are ignored: rejecting them is the loader's job.
func DecodeParams(defaults domain.Params, raw map[string]any) (domain.Params, error) {
	p := defaults
	if len(raw) == 0 {
		return p, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return domain.Params{}, fmt.Errorf("failed to encode parameters: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Params{}, fmt.Errorf("failed to decode parameters: %w", err)
	}
	return p, nil
}

// EncodeParams is the inverse of DecodeParams: it flattens p into the raw
// mapping form accepted by BuildFinancialModel.
func EncodeParams(p domain.Params) (map[string]any, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode parameters: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode parameters: %w", err)
	}
	return raw, nil
}
