package stresstest

// Platform-wide fallbacks used when a buyer has no usable history.
const (
	DefaultAnnualVolumeTonnes   = 10000.0
	DefaultAveragePricePerTonne = 850.0
	DefaultTopSupplierShare     = 0.4
	DefaultSupplierCount        = 3
)

// GenerateDefaultBaseline fills every unset (zero or negative) field of
// partial with the platform default. When nothing was supplied the source is
// SourceDefaults; otherwise the caller's source is kept, or SourceCaller if
// none was given.
func GenerateDefaultBaseline(partial Baseline) Baseline {
	b := partial
	supplied := 0

	if b.AnnualVolumeTonnes > 0 {
		supplied++
	} else {
		b.AnnualVolumeTonnes = DefaultAnnualVolumeTonnes
	}
	if b.AveragePricePerTonne > 0 {
		supplied++
	} else {
		b.AveragePricePerTonne = DefaultAveragePricePerTonne
	}
	if b.TopSupplierShare > 0 {
		supplied++
		b.TopSupplierShare = min(1, b.TopSupplierShare)
	} else {
		b.TopSupplierShare = DefaultTopSupplierShare
	}
	if b.SupplierCount > 0 {
		supplied++
	} else {
		b.SupplierCount = DefaultSupplierCount
	}

	switch {
	case supplied == 0:
		b.Source = SourceDefaults
	case b.Source == "":
		b.Source = SourceCaller
	}
	return b
}

// confidenceFor grades a baseline by the history behind it.
func confidenceFor(b Baseline) ConfidenceLevel {
	if b.Source == SourceDefaults {
		return ConfidenceLow
	}
	switch {
	case b.TransactionCount >= 12:
		return ConfidenceHigh
	case b.TransactionCount >= 3:
		return ConfidenceMedium
	}
	return ConfidenceLow
}
