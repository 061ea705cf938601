// Package rating implements the ABFI composite rating engine.
//
// The engine maps verified feedstock evidence (sustainability attributes,
// carbon intensity, quality lab parameters and supplier reliability history)
// into a 0-100 score with a full breakdown. All calculations are pure: no I/O,
// no shared mutable state, identical inputs always produce identical outputs.
package rating

import (
	"fmt"
	"strings"
)

// CertificationTier identifies the sustainability certification held for a batch.
// The zero value ("") is treated as CertificationNone.
type CertificationTier string

const (
	CertificationNone         CertificationTier = "none"
	CertificationISCCEU       CertificationTier = "ISCC_EU"
	CertificationRSB          CertificationTier = "RSB"
	CertificationISCCPlus     CertificationTier = "ISCC_PLUS"
	CertificationRSPO         CertificationTier = "RSPO"
	CertificationBonsucro     CertificationTier = "BONSUCRO"
	CertificationFSC          CertificationTier = "FSC"
	CertificationPEFC         CertificationTier = "PEFC"
	CertificationSelfDeclared CertificationTier = "SELF_DECLARED"
)

// AllCertifications lists every certification tier the engine knows about.
// Standards must carry a point value for each of them.
func AllCertifications() []CertificationTier {
	return []CertificationTier{
		CertificationNone,
		CertificationISCCEU,
		CertificationRSB,
		CertificationISCCPlus,
		CertificationRSPO,
		CertificationBonsucro,
		CertificationFSC,
		CertificationPEFC,
		CertificationSelfDeclared,
	}
}

// ParseCertification normalises a certification name received at an API boundary.
// Empty input maps to CertificationNone.
func ParseCertification(s string) (CertificationTier, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	if normalized == "" || normalized == "NONE" {
		return CertificationNone, nil
	}
	for _, c := range AllCertifications() {
		if string(c) == normalized {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCertification, s)
}

// Category is the closed set of feedstock categories. The category alone
// determines which quality parameters are meaningful.
type Category string

const (
	CategoryOilseed         Category = "oilseed"
	CategoryUCO             Category = "UCO"
	CategoryTallow          Category = "tallow"
	CategoryLignocellulosic Category = "lignocellulosic"
	CategoryWaste           Category = "waste"
	CategoryAlgae           Category = "algae"
	CategoryBamboo          Category = "bamboo"
	CategoryOther           Category = "other"
)

// AllCategories lists every feedstock category.
func AllCategories() []Category {
	return []Category{
		CategoryOilseed,
		CategoryUCO,
		CategoryTallow,
		CategoryLignocellulosic,
		CategoryWaste,
		CategoryAlgae,
		CategoryBamboo,
		CategoryOther,
	}
}

// ParseCategory matches a category name case-insensitively.
// Accepts "used_cooking_oil" as an alias for UCO.
func ParseCategory(s string) (Category, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "used_cooking_oil" || normalized == "used-cooking-oil" {
		return CategoryUCO, nil
	}
	for _, c := range AllCategories() {
		if strings.ToLower(string(c)) == normalized {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// SustainabilityInputs holds the compliance evidence submitted for a batch.
// Every flag defaults to false, which awards 0 points.
type SustainabilityInputs struct {
	Certification CertificationTier `json:"certification"`

	// Land use
	NoDeforestation  bool `json:"no_deforestation"`
	NoHCVConversion  bool `json:"no_hcv_conversion"`
	NoPeatlandDrain  bool `json:"no_peatland_drainage"`
	IndigenousRights bool `json:"indigenous_rights"`

	// Social
	FairWork               bool `json:"fair_work"`
	CommunityBenefit       bool `json:"community_benefit"`
	SupplyChainTransparent bool `json:"supply_chain_transparency"`

	// Biodiversity and soil
	Regenerative         bool `json:"regenerative_practice"`
	SoilCarbonMeasured   bool `json:"soil_carbon_measured"`
	BiodiversityCorridor bool `json:"biodiversity_corridor"`
}

// QualityInputs holds lab results for a batch. Parameters not present in the
// map score 0 for that parameter.
type QualityInputs struct {
	Category   Category           `json:"category"`
	Parameters map[string]float64 `json:"parameters"`
}

// ReliabilityInputs holds a supplier's operational history on the platform.
// Zero values are scored as-is (no history means no history points).
type ReliabilityInputs struct {
	OnTimeInFullPct      float64 `json:"otif_pct"`
	VolumeVariance       float64 `json:"volume_variance"`
	QualityCoV           float64 `json:"quality_cov"`
	AvgResponseTimeHours float64 `json:"avg_response_time_hours"`
	MonthsActive         float64 `json:"months_active"`
	TransactionCount     int     `json:"transaction_count"`
}

// CarbonRating is the letter rating printed on certificates.
type CarbonRating string

const (
	CarbonRatingAPlus CarbonRating = "A+"
	CarbonRatingA     CarbonRating = "A"
	CarbonRatingBPlus CarbonRating = "B+"
	CarbonRatingB     CarbonRating = "B"
	CarbonRatingCPlus CarbonRating = "C+"
	CarbonRatingC     CarbonRating = "C"
	CarbonRatingD     CarbonRating = "D"
	CarbonRatingF     CarbonRating = "F"
)

// ScoreTier is the display label derived from a score.
type ScoreTier string

const (
	TierExcellent    ScoreTier = "Excellent"
	TierGood         ScoreTier = "Good"
	TierAverage      ScoreTier = "Average"
	TierBelowAverage ScoreTier = "Below Average"
	TierPoor         ScoreTier = "Poor"
)

// SustainabilityBreakdown retains every awarded point value.
type SustainabilityBreakdown struct {
	Certification       CertificationTier `json:"certification"`
	CertificationPoints int               `json:"certification_points"`

	NoDeforestation  int `json:"no_deforestation"`
	NoHCVConversion  int `json:"no_hcv_conversion"`
	NoPeatlandDrain  int `json:"no_peatland_drainage"`
	IndigenousRights int `json:"indigenous_rights"`
	LandUse          int `json:"land_use_total"`

	FairWork               int `json:"fair_work"`
	CommunityBenefit       int `json:"community_benefit"`
	SupplyChainTransparent int `json:"supply_chain_transparency"`
	Social                 int `json:"social_total"`

	Regenerative         int `json:"regenerative_practice"`
	SoilCarbonMeasured   int `json:"soil_carbon_measured"`
	BiodiversityCorridor int `json:"biodiversity_corridor"`
	Biodiversity         int `json:"biodiversity_total"`
}

// SustainabilityResult is the output of the sustainability calculation.
type SustainabilityResult struct {
	Score     int                     `json:"score"`
	Breakdown SustainabilityBreakdown `json:"breakdown"`
}

// CarbonResult is the output of the carbon intensity calculation.
type CarbonResult struct {
	Score  float64      `json:"score"`
	Rating CarbonRating `json:"rating"`
}

// CarbonBreakdown pairs the measured value with its score and rating.
type CarbonBreakdown struct {
	Value  float64      `json:"value"`
	Score  float64      `json:"score"`
	Rating CarbonRating `json:"rating"`
}

// ParameterScore is the scored result for one quality parameter.
// Present is false when the parameter was missing from the inputs.
type ParameterScore struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Present   bool    `json:"present"`
	Points    float64 `json:"points"`
	MaxPoints float64 `json:"max_points"`
}

// QualityBreakdown lists parameter scores in table order.
type QualityBreakdown struct {
	Category   Category         `json:"category"`
	Parameters []ParameterScore `json:"parameters"`
}

// QualityResult is the output of the quality calculation.
type QualityResult struct {
	Score     int              `json:"score"`
	Breakdown QualityBreakdown `json:"breakdown"`
}

// ReliabilityBreakdown holds the five reliability components.
type ReliabilityBreakdown struct {
	Delivery           float64 `json:"delivery_performance"`
	VolumeConsistency  float64 `json:"volume_consistency"`
	QualityConsistency float64 `json:"quality_consistency"`
	ResponseTime       float64 `json:"response_time"`
	PlatformHistory    float64 `json:"platform_history"`
}

// Total sums the five components.
func (b ReliabilityBreakdown) Total() float64 {
	return b.Delivery + b.VolumeConsistency + b.QualityConsistency + b.ResponseTime + b.PlatformHistory
}

// ReliabilityResult is the output of the reliability calculation.
type ReliabilityResult struct {
	Score     int                  `json:"score"`
	Breakdown ReliabilityBreakdown `json:"breakdown"`
}

// AbfiBreakdown retains every intermediate value behind a composite score.
type AbfiBreakdown struct {
	Sustainability  SustainabilityBreakdown `json:"sustainability"`
	CarbonIntensity CarbonBreakdown         `json:"carbon_intensity"`
	Quality         QualityBreakdown        `json:"quality"`
	Reliability     ReliabilityBreakdown    `json:"reliability"`
	Weights         Weights                 `json:"weights"`
}

// AbfiScoreResult is the composite rating. AbfiScore always equals the
// weighted, rounded sum of the four sub-scores.
type AbfiScoreResult struct {
	AbfiScore            int           `json:"abfi_score"`
	SustainabilityScore  int           `json:"sustainability_score"`
	CarbonIntensityScore float64       `json:"carbon_intensity_score"`
	QualityScore         int           `json:"quality_score"`
	ReliabilityScore     int           `json:"reliability_score"`
	CarbonIntensityValue float64       `json:"carbon_intensity_value"`
	CarbonRating         CarbonRating  `json:"carbon_rating"`
	Breakdown            AbfiBreakdown `json:"breakdown"`
}
