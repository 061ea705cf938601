package bankability

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/abfi/platform/internal/modules/stresstest"
)

// DeriveBaseline builds a baseline from delivered transactions. Annual volume
// is the total volume, price is the volume-weighted mean and the top share is
// the largest supplier's fraction of volume. Transactions without positive
// volume are ignored; with none left the platform defaults are returned.
func DeriveBaseline(txs []Transaction) stresstest.Baseline {
	volumes := make([]float64, 0, len(txs))
	prices := make([]float64, 0, len(txs))
	bySupplier := make(map[string]float64)

	for _, t := range txs {
		if t.VolumeTonnes <= 0 {
			continue
		}
		volumes = append(volumes, t.VolumeTonnes)
		prices = append(prices, t.PricePerTonne)
		bySupplier[t.SupplierID] += t.VolumeTonnes
	}

	if len(volumes) == 0 {
		return stresstest.GenerateDefaultBaseline(stresstest.Baseline{})
	}

	total := floats.Sum(volumes)
	supplierVolumes := make([]float64, 0, len(bySupplier))
	for _, v := range bySupplier {
		supplierVolumes = append(supplierVolumes, v)
	}

	return stresstest.GenerateDefaultBaseline(stresstest.Baseline{
		AnnualVolumeTonnes:   total,
		AveragePricePerTonne: stat.Mean(prices, volumes),
		TopSupplierShare:     floats.Max(supplierVolumes) / total,
		SupplierCount:        len(bySupplier),
		Source:               stresstest.SourceTransactions,
		TransactionCount:     len(volumes),
	})
}
