package rating

import (
	"fmt"
	"math"
)

// scoreParameter awards full weight at or beyond the optimal threshold, zero
// at or beyond the acceptable threshold, and interpolates linearly between.
func scoreParameter(p QualityParameter, value float64) float64 {
	if p.HigherIsBetter {
		switch {
		case value >= p.Optimal:
			return p.Weight
		case value <= p.Acceptable:
			return 0
		}
		return p.Weight * (value - p.Acceptable) / (p.Optimal - p.Acceptable)
	}

	switch {
	case value <= p.Optimal:
		return p.Weight
	case value >= p.Acceptable:
		return 0
	}
	return p.Weight * (p.Acceptable - value) / (p.Acceptable - p.Optimal)
}

// QualityScore scores lab parameters against the category's table.
// Parameters missing from the inputs, or non-finite, score 0; unknown categories fail with
// ErrInvalidCategory.
func (e *Engine) QualityScore(in QualityInputs) (QualityResult, error) {
	table, ok := e.standards.Quality[in.Category]
	if !ok {
		return QualityResult{}, fmt.Errorf("%w: %q", ErrInvalidCategory, in.Category)
	}

	breakdown := QualityBreakdown{
		Category:   in.Category,
		Parameters: make([]ParameterScore, 0, len(table)),
	}

	total := 0.0
	for _, p := range table {
		ps := ParameterScore{Name: p.Name, MaxPoints: p.Weight}
		// NaN and ±Inf readings score like a missing parameter
		if value, present := in.Parameters[p.Name]; present && isFinite(value) {
			ps.Value = value
			ps.Present = true
			ps.Points = scoreParameter(p, value)
		}
		total += ps.Points
		breakdown.Parameters = append(breakdown.Parameters, ps)
	}

	return QualityResult{
		Score:     int(clamp(math.Round(total), 0, 100)),
		Breakdown: breakdown,
	}, nil
}
