package evaluation

import "github.com/taqyimhq/taqyim/core/form"

// ComputePercentage derives an evaluation's score from its responses:
//
//	100 * Σ(value·weight) / Σ(maxScore·weight)
//
// over the criteria of the form version the evaluation was started against.
// Responses without a matching criterion are ignored; a degenerate form whose
// weighted maximum is zero scores 0 rather than dividing by zero. The result
// is kept at full precision; rounding is a presentation concern.
func ComputePercentage(responses []Response, criteria []form.Criterion) float64 {
	values := make(map[string]float64, len(responses))
	for _, resp := range responses {
		values[resp.CriterionID] = resp.Value
	}

	var weightedScore, weightedMax float64
	for _, crit := range criteria {
		weightedMax += crit.MaxScore * crit.Weight
		if value, ok := values[crit.ID]; ok {
			weightedScore += value * crit.Weight
		}
	}
	if weightedMax == 0 {
		return 0
	}
	return 100 * weightedScore / weightedMax
}
