package stresstest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateDefaultBaseline_Empty(t *testing.T) {
	b := GenerateDefaultBaseline(Baseline{})

	assert.Equal(t, 10000.0, b.AnnualVolumeTonnes)
	assert.Equal(t, 850.0, b.AveragePricePerTonne)
	assert.Equal(t, 0.4, b.TopSupplierShare)
	assert.Equal(t, 3, b.SupplierCount)
	assert.Equal(t, SourceDefaults, b.Source)
}

func TestGenerateDefaultBaseline_Partial(t *testing.T) {
	b := GenerateDefaultBaseline(Baseline{AveragePricePerTonne: 1200})

	assert.Equal(t, 1200.0, b.AveragePricePerTonne)
	assert.Equal(t, 10000.0, b.AnnualVolumeTonnes)
	assert.Equal(t, SourceCaller, b.Source)
}

func TestGenerateDefaultBaseline_KeepsSource(t *testing.T) {
	b := GenerateDefaultBaseline(Baseline{
		AnnualVolumeTonnes: 400,
		SupplierCount:      2,
		Source:             SourceTransactions,
		TransactionCount:   5,
	})

	assert.Equal(t, SourceTransactions, b.Source)
	assert.Equal(t, 5, b.TransactionCount)
	assert.Equal(t, 0.4, b.TopSupplierShare)
}

func TestGenerateDefaultBaseline_CapsShare(t *testing.T) {
	b := GenerateDefaultBaseline(Baseline{TopSupplierShare: 1.7})
	assert.Equal(t, 1.0, b.TopSupplierShare)
}

func TestConfidenceFor(t *testing.T) {
	assert.Equal(t, ConfidenceLow, confidenceFor(Baseline{Source: SourceDefaults, TransactionCount: 50}))
	assert.Equal(t, ConfidenceHigh, confidenceFor(Baseline{Source: SourceTransactions, TransactionCount: 12}))
	assert.Equal(t, ConfidenceMedium, confidenceFor(Baseline{Source: SourceTransactions, TransactionCount: 3}))
	assert.Equal(t, ConfidenceLow, confidenceFor(Baseline{Source: SourceCaller, TransactionCount: 2}))
}
