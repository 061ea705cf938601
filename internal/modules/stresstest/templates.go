package stresstest

// Parameter names understood by the scenarios.
const (
	ParamSupplierSharePct      = "supplier_share_pct"
	ParamRecoveryMonths        = "recovery_months"
	ParamReplacementPremiumPct = "replacement_premium_pct"
	ParamVolumeLossPct         = "volume_loss_pct"
	ParamDurationMonths        = "duration_months"
	ParamPriceIncreasePct      = "price_increase_pct"
	ParamAffectedSupplyPct     = "affected_supply_pct"
	ParamYieldLossPct          = "yield_loss_pct"
	ParamDemandIncreasePct     = "demand_increase_pct"
	ParamSpotPremiumPct        = "spot_premium_pct"
)

// ScenarioTemplate describes a scenario and its default parameters for
// scenario pickers.
type ScenarioTemplate struct {
	Type              ScenarioType `json:"type"`
	Name              string       `json:"name"`
	Description       string       `json:"description"`
	DefaultParameters Parameters   `json:"default_parameters"`
}

// templateFor returns the catalog entry for a scenario. The second return
// value is false for unknown scenarios.
func templateFor(s ScenarioType) (ScenarioTemplate, bool) {
	switch s {
	case ScenarioSupplierDefault:
		return ScenarioTemplate{
			Type:        s,
			Name:        "Supplier Default",
			Description: "The largest supplier stops delivering and volume is replaced at a premium until a new supplier is onboarded.",
			DefaultParameters: Parameters{
				ParamSupplierSharePct:      DefaultTopSupplierShare * 100,
				ParamRecoveryMonths:        6,
				ParamReplacementPremiumPct: 15,
			},
		}, true
	case ScenarioSupplyShock:
		return ScenarioTemplate{
			Type:        s,
			Name:        "Supply Shock",
			Description: "A market-wide loss of available volume, replaced on the spot market at a premium.",
			DefaultParameters: Parameters{
				ParamVolumeLossPct:         30,
				ParamDurationMonths:        12,
				ParamReplacementPremiumPct: 25,
			},
		}, true
	case ScenarioPriceShock:
		return ScenarioTemplate{
			Type:        s,
			Name:        "Price Shock",
			Description: "Feedstock prices rise across the board for the duration of the event.",
			DefaultParameters: Parameters{
				ParamPriceIncreasePct: 25,
				ParamDurationMonths:   12,
			},
		}, true
	case ScenarioRegionalEvent:
		return ScenarioTemplate{
			Type:        s,
			Name:        "Regional Event",
			Description: "Drought, flood or fire cuts yields in a sourcing region and lifts regional prices.",
			DefaultParameters: Parameters{
				ParamAffectedSupplyPct: 50,
				ParamYieldLossPct:      40,
				ParamDurationMonths:    12,
				ParamPriceIncreasePct:  10,
			},
		}, true
	case ScenarioDemandSurge:
		return ScenarioTemplate{
			Type:        s,
			Name:        "Demand Surge",
			Description: "Requirements grow beyond contracted volume and the gap is bought on the spot market.",
			DefaultParameters: Parameters{
				ParamDemandIncreasePct: 20,
				ParamSpotPremiumPct:    15,
			},
		}, true
	}
	return ScenarioTemplate{}, false
}

// GetScenarioTemplates returns the scenario catalog in a fixed order. Each
// call allocates a fresh slice and parameter maps.
func GetScenarioTemplates() []ScenarioTemplate {
	scenarios := AllScenarios()
	out := make([]ScenarioTemplate, 0, len(scenarios))
	for _, s := range scenarios {
		t, _ := templateFor(s)
		out = append(out, t)
	}
	return out
}
