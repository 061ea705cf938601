package bankability

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abfi/platform/internal/modules/stresstest"
	testingpkg "github.com/abfi/platform/internal/testing"
)

func TestTransactionRepository_ListByBuyerSince(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "abfi")
	defer cleanup()
	repo := NewTransactionRepository(db.Conn(), zerolog.Nop())
	ctx := context.Background()

	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, tx := range []Transaction{
		{ID: "t1", BuyerID: "b1", SupplierID: "s1", VolumeTonnes: 10, PricePerTonne: 800, DeliveredAt: base},
		{ID: "t2", BuyerID: "b1", SupplierID: "s2", VolumeTonnes: 20, PricePerTonne: 820, DeliveredAt: base.AddDate(0, 2, 0)},
		{ID: "t3", BuyerID: "b2", SupplierID: "s1", VolumeTonnes: 30, PricePerTonne: 840, DeliveredAt: base.AddDate(0, 3, 0)},
	} {
		require.NoError(t, repo.Create(ctx, &tx))
	}

	all, err := repo.ListByBuyerSince(ctx, "b1", time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "t1", all[0].ID)
	assert.Equal(t, base, all[0].DeliveredAt)

	recent, err := repo.ListByBuyerSince(ctx, "b1", base.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "t2", recent[0].ID)

	none, err := repo.ListByBuyerSince(ctx, "nobody", time.Time{})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestStressTestRepository_RoundTrip(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "abfi")
	defer cleanup()
	repo := NewStressTestRepository(db.Conn(), zerolog.Nop())
	ctx := context.Background()

	res, err := stresstest.RunStressTest(stresstest.ScenarioRegionalEvent, testingpkg.NewBaselineFixture(), nil)
	require.NoError(t, err)

	created := time.Date(2026, time.March, 3, 3, 0, 0, 0, time.UTC)
	rec := &StressTestRecord{
		ID:              "st1",
		BuyerID:         "b1",
		Scenario:        res.Scenario,
		RiskScore:       res.RiskScore,
		RiskLevel:       res.RiskLevel,
		CovenantStatus:  res.Covenant.Status,
		FinancialImpact: res.FinancialImpact,
		Confidence:      res.Provenance.Confidence,
		Result:          res,
		InputSnapshot:   json.RawMessage(`{"buyer_id":"b1"}`),
		SnapshotDigest:  "sha256:test",
		CreatedAt:       created,
	}
	require.NoError(t, repo.Create(ctx, rec))

	later := *rec
	later.ID = "st2"
	later.CreatedAt = created.Add(time.Hour)
	require.NoError(t, repo.Create(ctx, &later))

	got, err := repo.GetByID(ctx, "st1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	list, err := repo.ListByBuyer(ctx, "b1", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "st2", list[0].ID, "newest first")

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
