package rating

// Fixed point values for sustainability flags. The certification ceiling (40)
// plus the three group ceilings sum to exactly 100.
const (
	PointsNoDeforestation  = 10
	PointsNoHCVConversion  = 8
	PointsNoPeatlandDrain  = 5
	PointsIndigenousRights = 2

	PointsFairWork               = 10
	PointsCommunityBenefit       = 5
	PointsSupplyChainTransparent = 5

	PointsRegenerative         = 8
	PointsSoilCarbonMeasured   = 4
	PointsBiodiversityCorridor = 3

	maxSustainabilityScore = 100
)

func award(flag bool, points int) int {
	if flag {
		return points
	}
	return 0
}

// certificationPoints resolves the point value for a tier. Unknown tiers and
// the zero value both award nothing.
func (e *Engine) certificationPoints(c CertificationTier) (CertificationTier, int) {
	if c == "" {
		c = CertificationNone
	}
	return c, e.standards.Certifications[c]
}

// SustainabilityScore scores certification, land use, social and
// biodiversity evidence. It never fails: missing flags award 0.
func (e *Engine) SustainabilityScore(in SustainabilityInputs) SustainabilityResult {
	b := SustainabilityBreakdown{}
	b.Certification, b.CertificationPoints = e.certificationPoints(in.Certification)

	b.NoDeforestation = award(in.NoDeforestation, PointsNoDeforestation)
	b.NoHCVConversion = award(in.NoHCVConversion, PointsNoHCVConversion)
	b.NoPeatlandDrain = award(in.NoPeatlandDrain, PointsNoPeatlandDrain)
	b.IndigenousRights = award(in.IndigenousRights, PointsIndigenousRights)
	b.LandUse = b.NoDeforestation + b.NoHCVConversion + b.NoPeatlandDrain + b.IndigenousRights

	b.FairWork = award(in.FairWork, PointsFairWork)
	b.CommunityBenefit = award(in.CommunityBenefit, PointsCommunityBenefit)
	b.SupplyChainTransparent = award(in.SupplyChainTransparent, PointsSupplyChainTransparent)
	b.Social = b.FairWork + b.CommunityBenefit + b.SupplyChainTransparent

	b.Regenerative = award(in.Regenerative, PointsRegenerative)
	b.SoilCarbonMeasured = award(in.SoilCarbonMeasured, PointsSoilCarbonMeasured)
	b.BiodiversityCorridor = award(in.BiodiversityCorridor, PointsBiodiversityCorridor)
	b.Biodiversity = b.Regenerative + b.SoilCarbonMeasured + b.BiodiversityCorridor

	score := b.CertificationPoints + b.LandUse + b.Social + b.Biodiversity
	if score > maxSustainabilityScore {
		score = maxSustainabilityScore
	}

	return SustainabilityResult{Score: score, Breakdown: b}
}
