package testing

import (
	"github.com/abfi/platform/internal/modules/rating"
	"github.com/abfi/platform/internal/modules/stresstest"
)

// NewSustainabilityFixture returns ISCC EU evidence with the full land use
// block (65 points).
func NewSustainabilityFixture() rating.SustainabilityInputs {
	return rating.SustainabilityInputs{
		Certification:    rating.CertificationISCCEU,
		NoDeforestation:  true,
		NoHCVConversion:  true,
		NoPeatlandDrain:  true,
		IndigenousRights: true,
	}
}

// NewQualityFixture returns UCO lab results with only free fatty acid
// reported at its optimal value (quality score 30).
func NewQualityFixture() map[string]float64 {
	return map[string]float64{"free_fatty_acid": 5}
}

// NewReliabilityFixture returns a supplier history scoring 83.
func NewReliabilityFixture() rating.ReliabilityInputs {
	return rating.ReliabilityInputs{
		OnTimeInFullPct:      90,
		VolumeVariance:       2,
		QualityCoV:           1,
		AvgResponseTimeHours: 10,
		MonthsActive:         6,
		TransactionCount:     12,
	}
}

// FixtureCarbonIntensity scores 80 with rating B+.
const FixtureCarbonIntensity = 25.0

// FixtureAbfiScore is the composite produced by the fixtures above.
const FixtureAbfiScore = 63

// NewBaselineFixture returns a caller-supplied baseline with a dominant
// supplier.
func NewBaselineFixture() stresstest.Baseline {
	return stresstest.Baseline{
		AnnualVolumeTonnes:   10000,
		AveragePricePerTonne: 850,
		TopSupplierShare:     0.4,
		SupplierCount:        3,
		Source:               stresstest.SourceCaller,
	}
}
