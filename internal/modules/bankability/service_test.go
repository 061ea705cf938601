package bankability

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/abfi/platform/internal/archive"
	"github.com/abfi/platform/internal/modules/stresstest"
	testingpkg "github.com/abfi/platform/internal/testing"
)

var now = time.Date(2026, time.September, 30, 12, 0, 0, 0, time.UTC)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) StressTestRun(scenario, covenant string, riskScore int) {
	m.Called(scenario, covenant, riskScore)
}

type captureArchiver struct {
	bundles []archive.AuditBundle
	err     error
}

func (a *captureArchiver) Archive(_ context.Context, b archive.AuditBundle) error {
	a.bundles = append(a.bundles, b)
	return a.err
}

func setupService(t *testing.T) *Service {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "abfi")
	t.Cleanup(cleanup)

	log := zerolog.Nop()
	svc := NewService(NewTransactionRepository(db.Conn(), log), NewStressTestRepository(db.Conn(), log), nil, log)
	svc.now = func() time.Time { return now }
	return svc
}

func seedHistory(t *testing.T, svc *Service, buyerID string) {
	t.Helper()
	ctx := context.Background()
	for _, tx := range []NewTransaction{
		{SupplierID: "s1", VolumeTonnes: 600, PricePerTonne: 800, DeliveredAt: now.AddDate(0, -2, 0)},
		{SupplierID: "s1", VolumeTonnes: 200, PricePerTonne: 900, DeliveredAt: now.AddDate(0, -5, 0)},
		{SupplierID: "s2", VolumeTonnes: 200, PricePerTonne: 1000, DeliveredAt: now.AddDate(0, -11, 0)},
		// Outside the baseline window
		{SupplierID: "s3", VolumeTonnes: 5000, PricePerTonne: 100, DeliveredAt: now.AddDate(-2, 0, 0)},
	} {
		_, err := svc.RecordTransaction(ctx, buyerID, tx)
		require.NoError(t, err)
	}
}

func TestService_RecordTransaction_Validation(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		buyer string
		in    NewTransaction
	}{
		{"missing buyer", " ", NewTransaction{SupplierID: "s1", VolumeTonnes: 1}},
		{"missing supplier", "b1", NewTransaction{VolumeTonnes: 1}},
		{"zero volume", "b1", NewTransaction{SupplierID: "s1"}},
		{"negative price", "b1", NewTransaction{SupplierID: "s1", VolumeTonnes: 1, PricePerTonne: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordTransaction(ctx, tt.buyer, tt.in)
			assert.ErrorIs(t, err, ErrInvalidTransaction)
		})
	}
}

func TestService_RecordTransaction_DefaultsDeliveryTime(t *testing.T) {
	svc := setupService(t)

	tx, err := svc.RecordTransaction(context.Background(), "b1", NewTransaction{SupplierID: "s1", VolumeTonnes: 10, PricePerTonne: 900})
	require.NoError(t, err)
	assert.Equal(t, now, tx.DeliveredAt)
	assert.NotEmpty(t, tx.ID)
}

func TestService_RunForBuyer(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	rec := &mockRecorder{}
	rec.On("StressTestRun", "price_shock", "breach", 30).Return().Once()
	svc.SetRecorder(rec)
	arch := &captureArchiver{}
	svc.SetArchiver(arch)
	seedHistory(t, svc, "b1")

	got, err := svc.RunForBuyer(ctx, "b1", RunRequest{Scenario: stresstest.ScenarioPriceShock})
	require.NoError(t, err)

	base := got.Result.Provenance.Baseline
	assert.Equal(t, 1000.0, base.AnnualVolumeTonnes, "two-year-old delivery excluded")
	assert.Equal(t, 3, base.TransactionCount)
	assert.Equal(t, stresstest.SourceTransactions, base.Source)
	assert.Equal(t, stresstest.ConfidenceMedium, got.Confidence)

	assert.InDelta(t, 215000.0, got.FinancialImpact, 1e-6)
	assert.Equal(t, 30, got.RiskScore)
	assert.Equal(t, stresstest.RiskMedium, got.RiskLevel)
	assert.Equal(t, stresstest.CovenantBreach, got.CovenantStatus)
	assert.Equal(t, now, got.CreatedAt)

	var snap map[string]interface{}
	require.NoError(t, json.Unmarshal(got.InputSnapshot, &snap))
	assert.Equal(t, "b1", snap["buyer_id"])
	assert.Len(t, snap["transaction_ids"], 3)
	assert.Equal(t, archive.Digest(got.InputSnapshot), got.SnapshotDigest)

	stored, err := svc.GetStressTest(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, got.SnapshotDigest, stored.SnapshotDigest)
	assert.Equal(t, got.Result, stored.Result)
	assert.JSONEq(t, string(got.InputSnapshot), string(stored.InputSnapshot))

	require.Len(t, arch.bundles, 1)
	assert.Equal(t, got.ID, arch.bundles[0].ID)
	assert.Equal(t, archive.KindStressTest, arch.bundles[0].Kind)
	rec.AssertExpectations(t)
}

func TestService_RunForBuyer_DigestStableForSameInputs(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	seedHistory(t, svc, "b1")
	req := RunRequest{Scenario: stresstest.ScenarioSupplyShock, Parameters: stresstest.Parameters{stresstest.ParamVolumeLossPct: 40}}

	a, err := svc.RunForBuyer(ctx, "b1", req)
	require.NoError(t, err)
	b, err := svc.RunForBuyer(ctx, "b1", req)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.SnapshotDigest, b.SnapshotDigest)

	c, err := svc.RunForBuyer(ctx, "b1", RunRequest{Scenario: stresstest.ScenarioSupplyShock})
	require.NoError(t, err)
	assert.NotEqual(t, a.SnapshotDigest, c.SnapshotDigest)

	list, err := svc.ListStressTests(ctx, "b1", 0)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	limited, err := svc.ListStressTests(ctx, "b1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestService_RunForBuyer_NoHistoryUsesDefaults(t *testing.T) {
	svc := setupService(t)

	got, err := svc.RunForBuyer(context.Background(), "new-buyer", RunRequest{Scenario: stresstest.ScenarioSupplierDefault})
	require.NoError(t, err)

	assert.Equal(t, stresstest.SourceDefaults, got.Result.Provenance.Baseline.Source)
	assert.Equal(t, stresstest.ConfidenceLow, got.Confidence)
}

func TestService_RunForBuyer_CovenantOverride(t *testing.T) {
	svc := setupService(t)
	seedHistory(t, svc, "b1")

	got, err := svc.RunForBuyer(context.Background(), "b1", RunRequest{
		Scenario: stresstest.ScenarioPriceShock,
		Covenant: &stresstest.Covenant{MinSupplyCoverage: 0.5, MaxCostIncrease: 0.3},
	})
	require.NoError(t, err)
	assert.Equal(t, stresstest.CovenantCompliant, got.CovenantStatus)
}

func TestService_RunForBuyer_Errors(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.RunForBuyer(ctx, "b1", RunRequest{Scenario: "meteor_strike"})
	assert.ErrorIs(t, err, stresstest.ErrInvalidScenario)

	_, err = svc.RunForBuyer(ctx, "b1", RunRequest{
		Scenario: stresstest.ScenarioPriceShock,
		Covenant: &stresstest.Covenant{MinSupplyCoverage: 2},
	})
	assert.ErrorIs(t, err, stresstest.ErrInvalidCovenant)

	_, err = svc.RunForBuyer(ctx, "b1", RunRequest{
		Scenario:   stresstest.ScenarioPriceShock,
		Parameters: stresstest.Parameters{stresstest.ParamPriceIncreasePct: 1e308},
	})
	assert.ErrorIs(t, err, stresstest.ErrNonFiniteResult)

	list, err := svc.ListStressTests(ctx, "b1", 0)
	require.NoError(t, err)
	assert.Empty(t, list, "failed runs are not stored")
}

func TestService_RunForBuyer_ArchiveFailureIsNotFatal(t *testing.T) {
	svc := setupService(t)
	svc.SetArchiver(&captureArchiver{err: errors.New("bucket unavailable")})

	_, err := svc.RunForBuyer(context.Background(), "b1", RunRequest{Scenario: stresstest.ScenarioDemandSurge})
	assert.NoError(t, err)
}

func TestService_GetStressTest_NotFound(t *testing.T) {
	svc := setupService(t)

	_, err := svc.GetStressTest(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Run_Stateless(t *testing.T) {
	svc := setupService(t)

	got, err := svc.Run(stresstest.ScenarioPriceShock, stresstest.Baseline{}, nil, nil)
	require.NoError(t, err)

	want, err := stresstest.RunStressTest(stresstest.ScenarioPriceShock, stresstest.Baseline{}, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
