package rating

import (
	"fmt"
	"math"
)

// Engine computes ABFI scores against an immutable set of Standards.
// An Engine is safe for concurrent use.
type Engine struct {
	standards Standards
}

// NewEngine validates the standards and returns an engine holding a private
// copy of them.
func NewEngine(s Standards) (*Engine, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &Engine{standards: s.clone()}, nil
}

// Weights returns the composite weights the engine applies.
func (e *Engine) Weights() Weights {
	return e.standards.Weights
}

// QualityTable returns a copy of the parameter table for a category.
func (e *Engine) QualityTable(c Category) (QualityTable, error) {
	table, ok := e.standards.Quality[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, c)
	}
	return append(QualityTable(nil), table...), nil
}

// AbfiScore combines the four category scores into the composite rating.
// The only failure is ErrInvalidCategory from the quality step.
func (e *Engine) AbfiScore(
	sustainability SustainabilityInputs,
	carbonIntensity float64,
	quality QualityInputs,
	reliability ReliabilityInputs,
) (AbfiScoreResult, error) {
	s := e.SustainabilityScore(sustainability)
	c := CalculateCarbonIntensityScore(carbonIntensity)
	q, err := e.QualityScore(quality)
	if err != nil {
		return AbfiScoreResult{}, err
	}
	r := CalculateReliabilityScore(reliability)

	w := e.standards.Weights
	composite := float64(s.Score)*w.Sustainability +
		c.Score*w.CarbonIntensity +
		float64(q.Score)*w.Quality +
		float64(r.Score)*w.Reliability

	return AbfiScoreResult{
		AbfiScore:            int(clamp(math.Round(composite), 0, 100)),
		SustainabilityScore:  s.Score,
		CarbonIntensityScore: c.Score,
		QualityScore:         q.Score,
		ReliabilityScore:     r.Score,
		CarbonIntensityValue: carbonIntensity,
		CarbonRating:         c.Rating,
		Breakdown: AbfiBreakdown{
			Sustainability: s.Breakdown,
			CarbonIntensity: CarbonBreakdown{
				Value:  carbonIntensity,
				Score:  c.Score,
				Rating: c.Rating,
			},
			Quality:     q.Breakdown,
			Reliability: r.Breakdown,
			Weights:     w,
		},
	}, nil
}

// =============================================================================
// PACKAGE-LEVEL API (built-in standards)
// =============================================================================

var defaultEngine = mustNewEngine(DefaultStandards())

func mustNewEngine(s Standards) *Engine {
	e, err := NewEngine(s)
	if err != nil {
		panic(err)
	}
	return e
}

// DefaultEngine returns the engine configured with the built-in standards.
func DefaultEngine() *Engine {
	return defaultEngine
}

// CalculateSustainabilityScore scores sustainability evidence with the built-in standards.
func CalculateSustainabilityScore(in SustainabilityInputs) SustainabilityResult {
	return defaultEngine.SustainabilityScore(in)
}

// CalculateQualityScore scores lab parameters with the built-in quality tables.
func CalculateQualityScore(in QualityInputs) (QualityResult, error) {
	return defaultEngine.QualityScore(in)
}

// CalculateAbfiScore computes the composite rating with the built-in standards.
func CalculateAbfiScore(
	sustainability SustainabilityInputs,
	carbonIntensity float64,
	quality QualityInputs,
	reliability ReliabilityInputs,
) (AbfiScoreResult, error) {
	return defaultEngine.AbfiScore(sustainability, carbonIntensity, quality, reliability)
}

// GetScoreTier maps a score to its display tier. Each tier includes its lower bound.
func GetScoreTier(score int) ScoreTier {
	switch {
	case score >= 85:
		return TierExcellent
	case score >= 70:
		return TierGood
	case score >= 55:
		return TierAverage
	case score >= 40:
		return TierBelowAverage
	}
	return TierPoor
}

// TierBand is the inclusive score range of a display tier.
type TierBand struct {
	Tier     ScoreTier `json:"tier"`
	MinScore int       `json:"min_score"`
	MaxScore int       `json:"max_score"`
}

// TierBands lists the tiers from best to worst.
func TierBands() []TierBand {
	return []TierBand{
		{Tier: TierExcellent, MinScore: 85, MaxScore: 100},
		{Tier: TierGood, MinScore: 70, MaxScore: 84},
		{Tier: TierAverage, MinScore: 55, MaxScore: 69},
		{Tier: TierBelowAverage, MinScore: 40, MaxScore: 54},
		{Tier: TierPoor, MinScore: 0, MaxScore: 39},
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteOrZero(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}
