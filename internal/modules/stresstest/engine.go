package stresstest

import (
	"fmt"
	"math"
)

// Default covenant thresholds.
const (
	DefaultMinSupplyCoverage = 0.90
	DefaultMaxCostIncrease   = 0.20
)

// Risk score components.
const (
	maxSupplyRisk        = 50.0
	supplyRiskSaturation = 0.5
	maxCostRisk          = 30.0
	costRiskSaturation   = 0.5
	maxConcentrationRisk = 20.0
	topShareRiskFactor   = 15.0
	monthsPerYear        = 12.0
)

// DefaultCovenant returns the platform covenant thresholds.
func DefaultCovenant() Covenant {
	return Covenant{
		MinSupplyCoverage: DefaultMinSupplyCoverage,
		MaxCostIncrease:   DefaultMaxCostIncrease,
	}
}

// Validate checks the thresholds are usable.
func (c Covenant) Validate() error {
	if math.IsNaN(c.MinSupplyCoverage) || c.MinSupplyCoverage < 0 || c.MinSupplyCoverage > 1 {
		return fmt.Errorf("%w: min supply coverage %v outside [0,1]", ErrInvalidCovenant, c.MinSupplyCoverage)
	}
	if math.IsNaN(c.MaxCostIncrease) || c.MaxCostIncrease < 0 {
		return fmt.Errorf("%w: max cost increase %v is negative", ErrInvalidCovenant, c.MaxCostIncrease)
	}
	return nil
}

// Engine runs scenarios against a default covenant. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	covenant Covenant
}

// NewEngine returns an engine testing results against the given covenant
// unless a run overrides it.
func NewEngine(c Covenant) (*Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Engine{covenant: c}, nil
}

// Covenant returns the engine's default covenant.
func (e *Engine) Covenant() Covenant {
	return e.covenant
}

var defaultEngine = &Engine{covenant: DefaultCovenant()}

// RunStressTest simulates a scenario with the default covenant.
func RunStressTest(scenario ScenarioType, baseline Baseline, params Parameters) (Result, error) {
	return defaultEngine.Run(scenario, baseline, params, nil)
}

// Run simulates a scenario. Unset baseline fields take platform defaults,
// missing parameters take the template defaults and a nil override uses the
// engine covenant. Unknown scenarios fail with ErrInvalidScenario.
func (e *Engine) Run(scenario ScenarioType, baseline Baseline, params Parameters, override *Covenant) (Result, error) {
	tmpl, ok := templateFor(scenario)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidScenario, scenario)
	}

	covenant := e.covenant
	if override != nil {
		if err := override.Validate(); err != nil {
			return Result{}, err
		}
		covenant = *override
	}

	b := GenerateDefaultBaseline(baseline)
	p := resolveParameters(tmpl, b, params)

	t := &trace{}
	cost := t.step("baseline_cost", "annual_volume × average_price", b.AnnualCost())

	var shortfall, impact float64
	switch scenario {
	case ScenarioSupplierDefault:
		shortfall, impact = supplierDefault(t, b, p)
	case ScenarioSupplyShock:
		shortfall, impact = supplyShock(t, b, p)
	case ScenarioPriceShock:
		shortfall, impact = priceShock(t, b, p)
	case ScenarioRegionalEvent:
		shortfall, impact = regionalEvent(t, b, p)
	case ScenarioDemandSurge:
		shortfall, impact = demandSurge(t, b, p)
	}

	costIncrease := 0.0
	if cost > 0 {
		costIncrease = impact / cost
	}
	t.step("cost_increase", "financial_impact / baseline_cost", costIncrease)
	t.step("stressed_cost", "baseline_cost + financial_impact", cost+impact)

	risk := riskBreakdown(shortfall, costIncrease, b)
	score := int(clamp(math.Round(risk.Supply+risk.Cost+risk.Concentration), 0, 100))
	t.step("supply_risk", "50 × min(1, shortfall / 0.5)", risk.Supply)
	t.step("cost_risk", "30 × min(1, cost_increase / 0.5)", risk.Cost)
	t.step("concentration_risk", "min(20, 15 × top_share + diversification_penalty)", risk.Concentration)
	t.step("risk_score", "round(supply_risk + cost_risk + concentration_risk)", float64(score))

	verdict := testCovenant(covenant, shortfall, costIncrease)
	t.step("supply_coverage", "1 − shortfall", verdict.SupplyCoverage)

	if err := checkFinite(b, p, t.steps); err != nil {
		return Result{}, err
	}

	return Result{
		Scenario:        scenario,
		BaselineCost:    cost,
		StressedCost:    cost + impact,
		FinancialImpact: impact,
		CostIncrease:    costIncrease,
		SupplyShortfall: shortfall,
		RiskScore:       score,
		RiskLevel:       riskLevelFor(score),
		Risk:            risk,
		Covenant:        verdict,
		Provenance: Provenance{
			Baseline:   b,
			Parameters: p,
			Steps:      t.steps,
			Confidence: confidenceFor(b),
		},
	}, nil
}

// resolveParameters overlays the caller's values on the template defaults.
// Keys the scenario does not use are dropped. An omitted supplier share is
// taken from the baseline.
func resolveParameters(tmpl ScenarioTemplate, b Baseline, params Parameters) Parameters {
	resolved := make(Parameters, len(tmpl.DefaultParameters))
	for name, def := range tmpl.DefaultParameters {
		resolved[name] = def
		if v, ok := params[name]; ok && !math.IsNaN(v) {
			resolved[name] = v
		}
	}
	if _, ok := params[ParamSupplierSharePct]; !ok && tmpl.Type == ScenarioSupplierDefault {
		resolved[ParamSupplierSharePct] = b.TopSupplierShare * 100
	}
	return resolved
}

// =============================================================================
// SCENARIOS
// =============================================================================

func supplierDefault(t *trace, b Baseline, p Parameters) (float64, float64) {
	share := t.step("supplier_share", "supplier_share_pct / 100", fraction(p[ParamSupplierSharePct]))
	d := t.step("duration_factor", "min(recovery_months, 12) / 12", durationFactor(p[ParamRecoveryMonths]))
	shortfall := t.step("supply_shortfall", "supplier_share × duration_factor", clamp(share*d, 0, 1))
	premium := fraction(p[ParamReplacementPremiumPct])
	impact := t.step("financial_impact", "volume × shortfall × price × replacement_premium",
		b.AnnualVolumeTonnes*shortfall*b.AveragePricePerTonne*premium)
	return shortfall, impact
}

func supplyShock(t *trace, b Baseline, p Parameters) (float64, float64) {
	loss := t.step("volume_loss", "volume_loss_pct / 100", fraction(p[ParamVolumeLossPct]))
	d := t.step("duration_factor", "min(duration_months, 12) / 12", durationFactor(p[ParamDurationMonths]))
	shortfall := t.step("supply_shortfall", "volume_loss × duration_factor", clamp(loss*d, 0, 1))
	premium := fraction(p[ParamReplacementPremiumPct])
	impact := t.step("financial_impact", "volume × shortfall × price × replacement_premium",
		b.AnnualVolumeTonnes*shortfall*b.AveragePricePerTonne*premium)
	return shortfall, impact
}

func priceShock(t *trace, b Baseline, p Parameters) (float64, float64) {
	increase := t.step("price_increase", "price_increase_pct / 100", fraction(p[ParamPriceIncreasePct]))
	d := t.step("duration_factor", "min(duration_months, 12) / 12", durationFactor(p[ParamDurationMonths]))
	impact := t.step("financial_impact", "volume × price × price_increase × duration_factor",
		b.AnnualVolumeTonnes*b.AveragePricePerTonne*increase*d)
	return 0, impact
}

func regionalEvent(t *trace, b Baseline, p Parameters) (float64, float64) {
	affected := t.step("affected_supply", "affected_supply_pct / 100", fraction(p[ParamAffectedSupplyPct]))
	yield := t.step("yield_loss", "yield_loss_pct / 100", fraction(p[ParamYieldLossPct]))
	d := t.step("duration_factor", "min(duration_months, 12) / 12", durationFactor(p[ParamDurationMonths]))
	shortfall := t.step("supply_shortfall", "affected_supply × yield_loss × duration_factor", clamp(affected*yield*d, 0, 1))
	increase := fraction(p[ParamPriceIncreasePct])

	// Delivered volume pays the regional price rise for the event; the lost
	// volume is bought in at the same uplift.
	delivered := b.AnnualVolumeTonnes * (1 - shortfall) * b.AveragePricePerTonne * increase * d
	replaced := b.AnnualVolumeTonnes * shortfall * b.AveragePricePerTonne * increase
	impact := t.step("financial_impact", "volume × (1 − shortfall) × price × price_increase × duration_factor + volume × shortfall × price × price_increase",
		delivered+replaced)
	return shortfall, impact
}

func demandSurge(t *trace, b Baseline, p Parameters) (float64, float64) {
	increase := t.step("demand_increase", "demand_increase_pct / 100", max(0, fraction(p[ParamDemandIncreasePct])))
	shortfall := t.step("supply_shortfall", "demand_increase / (1 + demand_increase)", increase/(1+increase))
	premium := fraction(p[ParamSpotPremiumPct])
	impact := t.step("financial_impact", "volume × demand_increase × price × spot_premium",
		b.AnnualVolumeTonnes*increase*b.AveragePricePerTonne*premium)
	return shortfall, impact
}

// =============================================================================
// RISK AND COVENANT
// =============================================================================

func diversificationPenalty(suppliers int) float64 {
	switch {
	case suppliers <= 1:
		return 5
	case suppliers == 2:
		return 3
	case suppliers <= 4:
		return 1
	}
	return 0
}

func riskBreakdown(shortfall, costIncrease float64, b Baseline) RiskBreakdown {
	return RiskBreakdown{
		Supply:        maxSupplyRisk * min(1, max(0, shortfall)/supplyRiskSaturation),
		Cost:          maxCostRisk * min(1, max(0, costIncrease)/costRiskSaturation),
		Concentration: min(maxConcentrationRisk, topShareRiskFactor*b.TopSupplierShare+diversificationPenalty(b.SupplierCount)),
	}
}

func riskLevelFor(score int) RiskLevel {
	switch {
	case score >= 70:
		return RiskCritical
	case score >= 50:
		return RiskHigh
	case score >= 30:
		return RiskMedium
	}
	return RiskLow
}

func testCovenant(c Covenant, shortfall, costIncrease float64) CovenantResult {
	r := CovenantResult{
		Status:         CovenantCompliant,
		Thresholds:     c,
		SupplyCoverage: 1 - shortfall,
		CostIncrease:   costIncrease,
		Breaches:       []string{},
	}
	if r.SupplyCoverage < c.MinSupplyCoverage {
		r.Breaches = append(r.Breaches, TestSupplyCoverage)
	}
	if costIncrease > c.MaxCostIncrease {
		r.Breaches = append(r.Breaches, TestCostIncrease)
	}
	if len(r.Breaches) > 0 {
		r.Status = CovenantBreach
	}
	return r
}

// =============================================================================
// HELPERS
// =============================================================================

// trace collects calculation steps in evaluation order.
// checkFinite rejects results that cannot be represented in JSON.
func checkFinite(b Baseline, p Parameters, steps []CalculationStep) error {
	if !isFinite(b.AnnualVolumeTonnes) || !isFinite(b.AveragePricePerTonne) || !isFinite(b.TopSupplierShare) {
		return fmt.Errorf("%w: baseline", ErrNonFiniteResult)
	}
	for name, v := range p {
		if !isFinite(v) {
			return fmt.Errorf("%w: parameter %s", ErrNonFiniteResult, name)
		}
	}
	for _, s := range steps {
		if !isFinite(s.Value) {
			return fmt.Errorf("%w: step %s", ErrNonFiniteResult, s.Name)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type trace struct {
	steps []CalculationStep
}

func (t *trace) step(name, formula string, value float64) float64 {
	t.steps = append(t.steps, CalculationStep{Name: name, Formula: formula, Value: value})
	return value
}

func fraction(pct float64) float64 {
	return pct / 100
}

func durationFactor(months float64) float64 {
	return clamp(months, 0, monthsPerYear) / monthsPerYear
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
