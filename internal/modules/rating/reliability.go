package rating

import "math"

// Reliability component ceilings and slopes.
const (
	maxDeliveryPoints         = 30.0
	maxVolumeConsistency      = 25.0
	volumeVariancePenalty     = 2.5
	maxQualityConsistency     = 20.0
	qualityCoVPenalty         = 4.0
	maxHistoryMonthsPoints    = 5.0
	historyMonthsDivisor      = 2.4
	maxHistoryTxPoints        = 5.0
	historyTransactionDivisor = 2.0
)

// responseTimePoints awards 15 within 4h, 12 within a day, 8 within two days,
// then decays by one point per extra day.
func responseTimePoints(hours float64) float64 {
	switch {
	case hours <= 4:
		return 15
	case hours <= 24:
		return 12
	case hours <= 48:
		return 8
	}
	return max(0, 8-(hours-48)/24)
}

// CalculateReliabilityScore scores a supplier's delivery, consistency,
// responsiveness and platform history.
func CalculateReliabilityScore(in ReliabilityInputs) ReliabilityResult {
	history := min(maxHistoryMonthsPoints, in.MonthsActive/historyMonthsDivisor) +
		min(maxHistoryTxPoints, float64(in.TransactionCount)/historyTransactionDivisor)

	// Non-finite components earn no points
	b := ReliabilityBreakdown{
		Delivery:           finiteOrZero(min(maxDeliveryPoints, in.OnTimeInFullPct/100*maxDeliveryPoints)),
		VolumeConsistency:  finiteOrZero(max(0, maxVolumeConsistency-in.VolumeVariance*volumeVariancePenalty)),
		QualityConsistency: finiteOrZero(max(0, maxQualityConsistency-in.QualityCoV*qualityCoVPenalty)),
		ResponseTime:       finiteOrZero(responseTimePoints(in.AvgResponseTimeHours)),
		PlatformHistory:    finiteOrZero(history),
	}

	return ReliabilityResult{
		Score:     int(clamp(math.Round(b.Total()), 0, 100)),
		Breakdown: b,
	}
}
