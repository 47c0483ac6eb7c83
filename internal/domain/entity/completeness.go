package entity

import (
	"fmt"
	"math"
)

// Weights maps each contributing category to its share of the overall
// completeness score. A valid set is non-negative and sums to 1.
type Weights map[Category]float64

// DefaultWeights returns the canonical category weighting.
func DefaultWeights() Weights {
	return Weights{
		CategoryInventory: 0.4,
		CategoryDiagram:   0.3,
		CategorySafety:    0.2,
		CategoryCommon:    0.1,
	}
}

// Validate rejects weight sets that would push the overall score out of [0,1].
func (w Weights) Validate() error {
	sum := 0.0
	for _, cat := range Categories() {
		v, ok := w[cat]
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrInvalidWeights, cat)
		}
		if v < 0 {
			return fmt.Errorf("%w: %s is negative", ErrInvalidWeights, cat)
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("%w: sum is %v", ErrInvalidWeights, sum)
	}
	return nil
}

// Breakdown is the result of scoring one equipment record.
type Breakdown struct {
	Overall    float64
	ByCategory map[Category]float64
}

type fieldCheck struct {
	name   string
	filled func(Equipment) bool
}

var categoryFields = map[Category][]fieldCheck{
	CategoryInventory: {
		{"specification", func(e Equipment) bool { return e.Specification != "" }},
		{"model", func(e Equipment) bool { return e.Model != "" }},
		{"manufacturer", func(e Equipment) bool { return e.Manufacturer != "" }},
		{"design_pressure", func(e Equipment) bool { return e.DesignPressure != 0 }},
		{"design_temperature", func(e Equipment) bool { return e.DesignTemperature != 0 }},
		{"quantity", func(e Equipment) bool { return e.Quantity != 0 }},
		{"power", func(e Equipment) bool { return e.Power != 0 }},
		{"weight", func(e Equipment) bool { return e.Weight != 0 }},
		{"price", func(e Equipment) bool { return e.Price != 0 }},
	},
	CategoryDiagram: {
		{"position", func(e Equipment) bool { return e.Position != Position{} }},
		{"size", func(e Equipment) bool { return e.Size != Size{} }},
		{"properties", func(e Equipment) bool { return len(e.Properties) > 0 }},
		{"connections", func(e Equipment) bool { return len(e.Connections) > 0 }},
	},
	CategorySafety: {
		{"safety_doc_uid", func(e Equipment) bool { return e.SafetyDocUID != "" }},
		{"hazard_class", func(e Equipment) bool { return e.HazardClass != "" }},
		{"cas_number", func(e Equipment) bool { return e.CASNumber != "" }},
	},
	CategoryCommon: {
		{"status", func(e Equipment) bool { return e.Status != "" }},
		{"location", func(e Equipment) bool { return e.Location != "" }},
		{"tags", func(e Equipment) bool { return len(e.Tags) > 0 }},
		{"notes", func(e Equipment) bool { return e.Notes != "" }},
	},
}

// Score computes the weighted completeness of e. The overall value equals the
// weighted sum of the per-category fractions and always lies in [0,1].
func Score(e Equipment, w Weights) Breakdown {
	byCategory := make(map[Category]float64, len(categoryFields))
	overall := 0.0

	for _, cat := range Categories() {
		checks := categoryFields[cat]
		filled := 0
		for _, c := range checks {
			if c.filled(e) {
				filled++
			}
		}

		fraction := float64(filled) / float64(len(checks))
		byCategory[cat] = fraction
		overall += fraction * w[cat]
	}

	return Breakdown{Overall: overall, ByCategory: byCategory}
}

// EmptyFields lists the unfilled fields of one category, used by UI
// collaborators to prompt data entry.
func EmptyFields(e Equipment, cat Category) ([]string, error) {
	checks, ok := categoryFields[cat]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, cat)
	}

	out := make([]string, 0, len(checks))
	for _, c := range checks {
		if !c.filled(e) {
			out = append(out, c.name)
		}
	}
	return out, nil
}
