// Package feedstocks stores suppliers, feedstock batches and supplier
// reliability history, and scores feedstocks with the ABFI rating engine.
package feedstocks

import (
	"errors"
	"time"

	"github.com/abfi/platform/internal/modules/rating"
)

var (
	// ErrNotFound is returned when a supplier or feedstock does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotScored is returned when a certificate is requested for a
	// feedstock that has never been scored.
	ErrNotScored = errors.New("feedstock has not been scored")

	// ErrInvalidSupplier is returned when supplier fields fail validation.
	ErrInvalidSupplier = errors.New("invalid supplier")
)

// Supplier is a feedstock producer on the platform.
type Supplier struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ABN       string    `json:"abn,omitempty"`
	Region    string    `json:"region,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Reliability is a supplier's operational history used for the reliability
// sub-score.
type Reliability struct {
	SupplierID string                   `json:"supplier_id"`
	Inputs     rating.ReliabilityInputs `json:"inputs"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// Feedstock is a batch offered by a supplier together with its latest score.
type Feedstock struct {
	ID              string                      `json:"id"`
	SupplierID      string                      `json:"supplier_id"`
	Name            string                      `json:"name"`
	Category        rating.Category             `json:"category"`
	CarbonIntensity float64                     `json:"carbon_intensity"`
	Sustainability  rating.SustainabilityInputs `json:"sustainability"`
	Quality         map[string]float64          `json:"quality_parameters"`
	Score           *Score                      `json:"score,omitempty"`
	CreatedAt       time.Time                   `json:"created_at"`
}

// QualityInputs returns the inputs for the quality sub-score.
func (f *Feedstock) QualityInputs() rating.QualityInputs {
	return rating.QualityInputs{Category: f.Category, Parameters: f.Quality}
}

// Score is the persisted outcome of a rating run.
type Score struct {
	AbfiScore            int                  `json:"abfi_score"`
	SustainabilityScore  int                  `json:"sustainability_score"`
	CarbonIntensityScore float64              `json:"carbon_intensity_score"`
	QualityScore         int                  `json:"quality_score"`
	ReliabilityScore     int                  `json:"reliability_score"`
	CarbonRating         rating.CarbonRating  `json:"carbon_rating"`
	Tier                 rating.ScoreTier     `json:"tier"`
	StandardsDigest      string               `json:"standards_digest"`
	Breakdown            rating.AbfiBreakdown `json:"breakdown"`
	ScoredAt             time.Time            `json:"scored_at"`
}

// NewScore converts an engine result into its persisted form.
func NewScore(r rating.AbfiScoreResult, digest string, at time.Time) Score {
	return Score{
		AbfiScore:            r.AbfiScore,
		SustainabilityScore:  r.SustainabilityScore,
		CarbonIntensityScore: r.CarbonIntensityScore,
		QualityScore:         r.QualityScore,
		ReliabilityScore:     r.ReliabilityScore,
		CarbonRating:         r.CarbonRating,
		Tier:                 rating.GetScoreTier(r.AbfiScore),
		StandardsDigest:      digest,
		Breakdown:            r.Breakdown,
		ScoredAt:             at.UTC(),
	}
}

// Result rebuilds the engine result the score was stored from.
func (s Score) Result(carbonIntensity float64) rating.AbfiScoreResult {
	return rating.AbfiScoreResult{
		AbfiScore:            s.AbfiScore,
		SustainabilityScore:  s.SustainabilityScore,
		CarbonIntensityScore: s.CarbonIntensityScore,
		QualityScore:         s.QualityScore,
		ReliabilityScore:     s.ReliabilityScore,
		CarbonIntensityValue: carbonIntensity,
		CarbonRating:         s.CarbonRating,
		Breakdown:            s.Breakdown,
	}
}

// ListFilter narrows feedstock listings. Zero values mean no filter.
type ListFilter struct {
	SupplierID string
	Category   rating.Category
	MinScore   int
	Limit      int
	Offset     int
}

// RescoreSummary reports a batch rescoring run.
type RescoreSummary struct {
	Total    int           `json:"total"`
	Scored   int           `json:"scored"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration_ns"`
}
