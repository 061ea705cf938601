// Package stresstest simulates adverse market events against a buyer's
// supply position for bankability analysis.
//
// Like the rating engine, everything here is a pure function of its
// arguments: a scenario type, a baseline and scenario parameters go in, a
// financial impact, risk score and covenant verdict come out, together with
// the provenance needed to reproduce the numbers.
package stresstest

import (
	"fmt"
	"strings"
)

// ScenarioType names an adverse market event.
type ScenarioType string

const (
	ScenarioSupplierDefault ScenarioType = "supplier_default"
	ScenarioSupplyShock     ScenarioType = "supply_shock"
	ScenarioPriceShock      ScenarioType = "price_shock"
	ScenarioRegionalEvent   ScenarioType = "regional_event"
	ScenarioDemandSurge     ScenarioType = "demand_surge"
)

// AllScenarios lists every scenario the engine can simulate, in catalog order.
func AllScenarios() []ScenarioType {
	return []ScenarioType{
		ScenarioSupplierDefault,
		ScenarioSupplyShock,
		ScenarioPriceShock,
		ScenarioRegionalEvent,
		ScenarioDemandSurge,
	}
}

// ParseScenario matches a scenario name case-insensitively; hyphens and
// spaces are accepted in place of underscores.
func ParseScenario(s string) (ScenarioType, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	for _, sc := range AllScenarios() {
		if string(sc) == normalized {
			return sc, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidScenario, s)
}

// BaselineSource records where baseline figures came from.
type BaselineSource string

const (
	SourceDefaults     BaselineSource = "defaults"
	SourceTransactions BaselineSource = "transactions"
	SourceCaller       BaselineSource = "caller"
)

// Baseline is the buyer's unstressed supply position.
type Baseline struct {
	AnnualVolumeTonnes   float64        `json:"annual_volume_tonnes"`
	AveragePricePerTonne float64        `json:"average_price_per_tonne"`
	TopSupplierShare     float64        `json:"top_supplier_share"` // 0-1
	SupplierCount        int            `json:"supplier_count"`
	Source               BaselineSource `json:"source"`
	TransactionCount     int            `json:"transaction_count"`
}

// AnnualCost is volume times price.
func (b Baseline) AnnualCost() float64 {
	return b.AnnualVolumeTonnes * b.AveragePricePerTonne
}

// Parameters are the scenario magnitudes keyed by parameter name. Values are
// percentages (30 means 30%) or months. Missing keys take the template default.
type Parameters map[string]float64

// Covenant holds the lender thresholds a stressed position is tested against.
type Covenant struct {
	MinSupplyCoverage float64 `json:"min_supply_coverage" validate:"gte=0,lte=1"`
	MaxCostIncrease   float64 `json:"max_cost_increase" validate:"gte=0"`
}

// RiskLevel is the banded reading of a risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// CovenantStatus is the verdict of the covenant test.
type CovenantStatus string

const (
	CovenantCompliant CovenantStatus = "compliant"
	CovenantBreach    CovenantStatus = "breach"
)

// Covenant test names reported in CovenantResult.Breaches.
const (
	TestSupplyCoverage = "supply_coverage"
	TestCostIncrease   = "cost_increase"
)

// CovenantResult reports the covenant test and which limits were breached.
type CovenantResult struct {
	Status         CovenantStatus `json:"status"`
	Thresholds     Covenant       `json:"thresholds"`
	SupplyCoverage float64        `json:"supply_coverage"`
	CostIncrease   float64        `json:"cost_increase"`
	Breaches       []string       `json:"breaches"`
}

// ConfidenceLevel grades how much history backs the baseline.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// CalculationStep is one named intermediate value.
type CalculationStep struct {
	Name    string  `json:"name"`
	Formula string  `json:"formula"`
	Value   float64 `json:"value"`
}

// Provenance is everything needed to reproduce a result.
type Provenance struct {
	Baseline   Baseline          `json:"baseline"`
	Parameters Parameters        `json:"parameters"`
	Steps      []CalculationStep `json:"steps"`
	Confidence ConfidenceLevel   `json:"confidence"`
}

// RiskBreakdown holds the three risk score components.
type RiskBreakdown struct {
	Supply        float64 `json:"supply"`
	Cost          float64 `json:"cost"`
	Concentration float64 `json:"concentration"`
}

// Result is the outcome of one simulated scenario. SupplyShortfall and
// CostIncrease are fractions (0.25 means 25%).
type Result struct {
	Scenario        ScenarioType   `json:"scenario"`
	BaselineCost    float64        `json:"baseline_cost"`
	StressedCost    float64        `json:"stressed_cost"`
	FinancialImpact float64        `json:"financial_impact"`
	CostIncrease    float64        `json:"cost_increase"`
	SupplyShortfall float64        `json:"supply_shortfall"`
	RiskScore       int            `json:"risk_score"`
	RiskLevel       RiskLevel      `json:"risk_level"`
	Risk            RiskBreakdown  `json:"risk_breakdown"`
	Covenant        CovenantResult `json:"covenant"`
	Provenance      Provenance     `json:"provenance"`
}
