package rating

// carbonBand covers values from the previous band's Upper up to, but
// excluding, its own Upper.
type carbonBand struct {
	Upper  float64
	Base   float64
	Rating CarbonRating
}

// Bands are evaluated in order; the first band whose upper bound exceeds the
// value wins, so a value equal to a bound falls into the higher band.
var carbonBands = [...]carbonBand{
	{Upper: 20, Base: 85, Rating: CarbonRatingA},
	{Upper: 30, Base: 75, Rating: CarbonRatingBPlus},
	{Upper: 40, Base: 65, Rating: CarbonRatingB},
	{Upper: 50, Base: 55, Rating: CarbonRatingCPlus},
	{Upper: 60, Base: 45, Rating: CarbonRatingC},
	{Upper: 70, Base: 35, Rating: CarbonRatingD},
}

const (
	carbonAPlusThreshold = 10.0
	carbonAPlusBase      = 95.0
	carbonAPlusSlope     = 0.5
	carbonFloorThreshold = 70.0
	carbonFloorBase      = 35.0
)

// CalculateCarbonIntensityScore maps a carbon intensity (gCO2e/MJ, lower is
// better) onto a 0-100 score and the letter rating shown on certificates.
func CalculateCarbonIntensityScore(ci float64) CarbonResult {
	var score float64
	var rating CarbonRating

	switch {
	case ci < carbonAPlusThreshold:
		score = carbonAPlusBase + (carbonAPlusThreshold-ci)*carbonAPlusSlope
		rating = CarbonRatingAPlus
	case ci >= carbonFloorThreshold:
		score = max(0, carbonFloorBase-(ci-carbonFloorThreshold))
		rating = CarbonRatingF
	default:
		for _, band := range carbonBands {
			if ci < band.Upper {
				score = band.Base + (band.Upper - ci)
				rating = band.Rating
				break
			}
		}
	}

	if rating == "" {
		// NaN matches no band
		return CarbonResult{Score: 0, Rating: CarbonRatingF}
	}

	return CarbonResult{Score: clamp(score, 0, 100), Rating: rating}
}
