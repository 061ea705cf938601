package rating

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CATEGORY WEIGHTS
// =============================================================================

const (
	// Composite weights (must sum to 1.0)
	WeightSustainability  = 0.30
	WeightCarbonIntensity = 0.30
	WeightQuality         = 0.25
	WeightReliability     = 0.15

	weightSumTolerance = 1e-9
)

// Weights are the composite category weights.
type Weights struct {
	Sustainability  float64 `json:"sustainability" yaml:"sustainability"`
	CarbonIntensity float64 `json:"carbon_intensity" yaml:"carbon_intensity"`
	Quality         float64 `json:"quality" yaml:"quality"`
	Reliability     float64 `json:"reliability" yaml:"reliability"`
}

// DefaultWeights returns the published ABFI weights.
func DefaultWeights() Weights {
	return Weights{
		Sustainability:  WeightSustainability,
		CarbonIntensity: WeightCarbonIntensity,
		Quality:         WeightQuality,
		Reliability:     WeightReliability,
	}
}

// Validate checks the weights are non-negative and sum to 1.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"sustainability":   w.Sustainability,
		"carbon_intensity": w.CarbonIntensity,
		"quality":          w.Quality,
		"reliability":      w.Reliability,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: weight %s is %v", ErrInvalidStandards, name, v)
		}
	}
	sum := w.Sustainability + w.CarbonIntensity + w.Quality + w.Reliability
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %v, expected 1.0", ErrInvalidStandards, sum)
	}
	return nil
}

// =============================================================================
// QUALITY TABLES
// =============================================================================

// QualityParameter describes how one lab parameter is scored.
type QualityParameter struct {
	Name           string  `json:"name" yaml:"name"`
	Optimal        float64 `json:"optimal" yaml:"optimal"`
	Acceptable     float64 `json:"acceptable" yaml:"acceptable"`
	HigherIsBetter bool    `json:"higher_is_better" yaml:"higher_is_better"`
	Weight         float64 `json:"weight" yaml:"weight"`
}

// QualityTable is the ordered parameter list for one category.
type QualityTable []QualityParameter

func higher(name string, optimal, acceptable, weight float64) QualityParameter {
	return QualityParameter{Name: name, Optimal: optimal, Acceptable: acceptable, HigherIsBetter: true, Weight: weight}
}

func lower(name string, optimal, acceptable, weight float64) QualityParameter {
	return QualityParameter{Name: name, Optimal: optimal, Acceptable: acceptable, HigherIsBetter: false, Weight: weight}
}

// defaultQualityTable returns the built-in parameter table for a category.
// The second return value is false for categories outside the closed set.
func defaultQualityTable(c Category) (QualityTable, bool) {
	switch c {
	case CategoryOilseed:
		return QualityTable{
			higher("oil_content", 42, 35, 30),
			lower("moisture", 8, 12, 20),
			lower("free_fatty_acid", 1, 3, 20),
			higher("protein_content", 20, 15, 15),
			lower("impurities", 1, 3, 15),
		}, true
	case CategoryUCO:
		return QualityTable{
			lower("free_fatty_acid", 5, 15, 30),
			lower("moisture", 0.5, 2, 25),
			lower("impurities", 1, 3, 20),
			lower("sulfur_content", 10, 50, 15),
			lower("iodine_value", 100, 130, 10),
		}, true
	case CategoryTallow:
		return QualityTable{
			lower("free_fatty_acid", 2, 10, 30),
			lower("moisture", 0.5, 1.5, 20),
			lower("impurities", 0.15, 0.5, 20),
			higher("total_fatty_matter", 98, 95, 15),
			lower("sulfur_content", 10, 50, 15),
		}, true
	case CategoryLignocellulosic:
		return QualityTable{
			lower("moisture", 15, 35, 30),
			lower("ash_content", 3, 10, 25),
			higher("calorific_value", 18, 14, 25),
			higher("particle_size_consistency", 90, 60, 20),
		}, true
	case CategoryWaste:
		return QualityTable{
			lower("contamination", 2, 10, 30),
			lower("moisture", 20, 50, 25),
			higher("calorific_value", 15, 8, 25),
			lower("ash_content", 10, 25, 20),
		}, true
	case CategoryAlgae:
		return QualityTable{
			higher("lipid_content", 40, 20, 35),
			lower("ash_content", 10, 25, 25),
			lower("moisture", 10, 25, 20),
			higher("protein_content", 30, 15, 20),
		}, true
	case CategoryBamboo:
		return QualityTable{
			lower("moisture", 15, 30, 25),
			higher("calorific_value", 18, 15, 25),
			lower("ash_content", 2, 6, 25),
			higher("cellulose_content", 45, 35, 25),
		}, true
	case CategoryOther:
		return QualityTable{
			higher("overall_quality", 80, 40, 100),
		}, true
	}
	return nil, false
}

// =============================================================================
// CERTIFICATION POINTS
// =============================================================================

// defaultCertificationPoints returns the built-in points for a tier.
func defaultCertificationPoints(c CertificationTier) int {
	switch c {
	case CertificationISCCEU, CertificationRSB:
		return 40
	case CertificationISCCPlus:
		return 35
	case CertificationRSPO, CertificationBonsucro, CertificationFSC:
		return 30
	case CertificationPEFC:
		return 25
	case CertificationSelfDeclared:
		return 10
	case CertificationNone:
		return 0
	}
	return 0
}

// =============================================================================
// STANDARDS
// =============================================================================

// Standards bundles every tunable table used by the rating engine.
type Standards struct {
	Weights        Weights                   `json:"weights" yaml:"weights"`
	Certifications map[CertificationTier]int `json:"certifications" yaml:"certifications"`
	Quality        map[Category]QualityTable `json:"quality" yaml:"quality"`
}

// DefaultStandards returns a fresh copy of the built-in standards.
func DefaultStandards() Standards {
	s := Standards{
		Weights:        DefaultWeights(),
		Certifications: make(map[CertificationTier]int, len(AllCertifications())),
		Quality:        make(map[Category]QualityTable, len(AllCategories())),
	}
	for _, c := range AllCertifications() {
		s.Certifications[c] = defaultCertificationPoints(c)
	}
	for _, c := range AllCategories() {
		table, _ := defaultQualityTable(c)
		s.Quality[c] = table
	}
	return s
}

// Validate checks the standards cover every certification and category and
// that each quality table is well formed.
func (s Standards) Validate() error {
	if err := s.Weights.Validate(); err != nil {
		return err
	}

	for _, c := range AllCertifications() {
		points, ok := s.Certifications[c]
		if !ok {
			return fmt.Errorf("%w: no points for certification %s", ErrInvalidStandards, c)
		}
		if points < 0 || points > 40 {
			return fmt.Errorf("%w: certification %s points %d outside [0,40]", ErrInvalidStandards, c, points)
		}
	}

	for _, c := range AllCategories() {
		table, ok := s.Quality[c]
		if !ok || len(table) == 0 {
			return fmt.Errorf("%w: no quality table for category %s", ErrInvalidStandards, c)
		}
		total := 0.0
		for _, p := range table {
			if p.Name == "" {
				return fmt.Errorf("%w: unnamed parameter in %s table", ErrInvalidStandards, c)
			}
			if p.Optimal == p.Acceptable {
				return fmt.Errorf("%w: %s.%s optimal equals acceptable", ErrInvalidStandards, c, p.Name)
			}
			if p.HigherIsBetter && p.Optimal < p.Acceptable {
				return fmt.Errorf("%w: %s.%s optimal below acceptable for higher-is-better", ErrInvalidStandards, c, p.Name)
			}
			if !p.HigherIsBetter && p.Optimal > p.Acceptable {
				return fmt.Errorf("%w: %s.%s optimal above acceptable for lower-is-better", ErrInvalidStandards, c, p.Name)
			}
			total += p.Weight
		}
		if math.Abs(total-100) > weightSumTolerance {
			return fmt.Errorf("%w: %s weights sum to %v, expected 100", ErrInvalidStandards, c, total)
		}
	}

	return nil
}

// clone deep-copies the tables so an Engine never shares maps with its caller.
func (s Standards) clone() Standards {
	out := Standards{
		Weights:        s.Weights,
		Certifications: make(map[CertificationTier]int, len(s.Certifications)),
		Quality:        make(map[Category]QualityTable, len(s.Quality)),
	}
	for k, v := range s.Certifications {
		out.Certifications[k] = v
	}
	for k, v := range s.Quality {
		out.Quality[k] = append(QualityTable(nil), v...)
	}
	return out
}

// BuiltinStandardsDigest identifies scores computed with DefaultStandards.
const BuiltinStandardsDigest = "builtin"

// LoadedStandards is a standards file together with the digest of its raw bytes.
type LoadedStandards struct {
	Standards Standards
	Digest    string
}

// LoadStandards reads a YAML overrides file. Keys present in the file replace
// the built-in values; everything else keeps its default. The result is
// validated before it is returned.
func LoadStandards(path string) (LoadedStandards, error) {
	// #nosec G304 -- path is operator-configured.
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadedStandards{}, fmt.Errorf("failed to read standards file: %w", err)
	}
	return ParseStandards(data)
}

// ParseStandards decodes YAML overrides on top of DefaultStandards.
func ParseStandards(data []byte) (LoadedStandards, error) {
	s := DefaultStandards()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return LoadedStandards{}, fmt.Errorf("%w: %v", ErrInvalidStandards, err)
	}
	if err := s.Validate(); err != nil {
		return LoadedStandards{}, err
	}

	sum := sha256.Sum256(data)
	return LoadedStandards{
		Standards: s,
		Digest:    "sha256:" + hex.EncodeToString(sum[:]),
	}, nil
}
