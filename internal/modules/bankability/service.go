package bankability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/abfi/platform/internal/archive"
	"github.com/abfi/platform/internal/modules/stresstest"
)

// Recorder receives stress test metrics. *metrics.Metrics satisfies it.
type Recorder interface {
	StressTestRun(scenario, covenant string, riskScore int)
}

type noopRecorder struct{}

func (noopRecorder) StressTestRun(string, string, int) {}

// NewTransaction is the input for RecordTransaction.
type NewTransaction struct {
	SupplierID    string
	VolumeTonnes  float64
	PricePerTonne float64
	DeliveredAt   time.Time
}

// Service runs and records buyer stress tests.
type Service struct {
	transactions *TransactionRepository
	stressTests  *StressTestRepository
	engine       *stresstest.Engine
	recorder     Recorder
	archiver     archive.Archiver
	now          func() time.Time
	log          zerolog.Logger
}

// NewService creates a bankability service. A nil engine uses the default
// covenant.
func NewService(
	transactions *TransactionRepository,
	stressTests *StressTestRepository,
	engine *stresstest.Engine,
	log zerolog.Logger,
) *Service {
	if engine == nil {
		engine, _ = stresstest.NewEngine(stresstest.DefaultCovenant())
	}
	return &Service{
		transactions: transactions,
		stressTests:  stressTests,
		engine:       engine,
		recorder:     noopRecorder{},
		archiver:     archive.NoopArchiver{},
		now:          time.Now,
		log:          log.With().Str("service", "bankability").Logger(),
	}
}

// SetRecorder sets the metrics recorder
func (s *Service) SetRecorder(r Recorder) {
	if r != nil {
		s.recorder = r
	}
}

// SetArchiver sets where stress test audit bundles are stored
func (s *Service) SetArchiver(a archive.Archiver) {
	if a != nil {
		s.archiver = a
	}
}

// Covenant returns the covenant applied when a run has no override.
func (s *Service) Covenant() stresstest.Covenant {
	return s.engine.Covenant()
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// RecordTransaction stores a delivery for a buyer.
func (s *Service) RecordTransaction(ctx context.Context, buyerID string, in NewTransaction) (*Transaction, error) {
	buyerID = strings.TrimSpace(buyerID)
	if buyerID == "" {
		return nil, fmt.Errorf("%w: buyer ID is required", ErrInvalidTransaction)
	}
	if strings.TrimSpace(in.SupplierID) == "" {
		return nil, fmt.Errorf("%w: supplier ID is required", ErrInvalidTransaction)
	}
	if in.VolumeTonnes <= 0 || in.PricePerTonne < 0 {
		return nil, fmt.Errorf("%w: volume %v, price %v", ErrInvalidTransaction, in.VolumeTonnes, in.PricePerTonne)
	}

	delivered := in.DeliveredAt
	if delivered.IsZero() {
		delivered = s.timestamp()
	}
	t := &Transaction{
		ID:            uuid.NewString(),
		BuyerID:       buyerID,
		SupplierID:    in.SupplierID,
		VolumeTonnes:  in.VolumeTonnes,
		PricePerTonne: in.PricePerTonne,
		DeliveredAt:   delivered.UTC().Truncate(time.Second),
	}
	if err := s.transactions.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Run simulates a scenario without touching storage.
func (s *Service) Run(
	scenario stresstest.ScenarioType,
	baseline stresstest.Baseline,
	params stresstest.Parameters,
	covenant *stresstest.Covenant,
) (stresstest.Result, error) {
	res, err := s.engine.Run(scenario, baseline, params, covenant)
	if err != nil {
		return stresstest.Result{}, err
	}
	s.recorder.StressTestRun(string(res.Scenario), string(res.Covenant.Status), res.RiskScore)
	return res, nil
}

// RunForBuyer derives the buyer's baseline from the last BaselineMonths of
// transactions, runs the scenario and stores the result with a digest of its
// inputs. Archive failures are logged and do not fail the run.
func (s *Service) RunForBuyer(ctx context.Context, buyerID string, req RunRequest) (*StressTestRecord, error) {
	now := s.timestamp()
	since := now.AddDate(0, -BaselineMonths, 0)

	txs, err := s.transactions.ListByBuyerSince(ctx, buyerID, since)
	if err != nil {
		return nil, err
	}
	baseline := DeriveBaseline(txs)

	res, err := s.Run(req.Scenario, baseline, req.Parameters, req.Covenant)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(txs))
	for i, t := range txs {
		ids[i] = t.ID
	}
	snapshot := inputSnapshot{
		BuyerID:        buyerID,
		Scenario:       req.Scenario,
		Baseline:       baseline,
		Parameters:     req.Parameters,
		Covenant:       res.Covenant.Thresholds,
		WindowStart:    since,
		WindowEnd:      now,
		TransactionIDs: ids,
	}

	id := uuid.NewString()
	bundle, err := archive.NewBundle(archive.KindStressTest, id, now, snapshot, res)
	if err != nil {
		return nil, err
	}

	rec := &StressTestRecord{
		ID:              id,
		BuyerID:         buyerID,
		Scenario:        res.Scenario,
		RiskScore:       res.RiskScore,
		RiskLevel:       res.RiskLevel,
		CovenantStatus:  res.Covenant.Status,
		FinancialImpact: res.FinancialImpact,
		Confidence:      res.Provenance.Confidence,
		Result:          res,
		InputSnapshot:   bundle.Snapshot,
		SnapshotDigest:  bundle.Digest,
		CreatedAt:       now,
	}
	if err := s.stressTests.Create(ctx, rec); err != nil {
		return nil, err
	}

	if err := s.archiver.Archive(ctx, bundle); err != nil {
		s.log.Warn().Err(err).Str("stress_test_id", id).Msg("Failed to archive stress test")
	}

	s.log.Info().
		Str("stress_test_id", id).
		Str("buyer_id", buyerID).
		Str("scenario", string(res.Scenario)).
		Int("risk_score", res.RiskScore).
		Str("covenant", string(res.Covenant.Status)).
		Str("confidence", string(res.Provenance.Confidence)).
		Msg("Stress test completed")

	return rec, nil
}

// GetStressTest returns a stored run or ErrNotFound.
func (s *Service) GetStressTest(ctx context.Context, id string) (*StressTestRecord, error) {
	return s.stressTests.GetByID(ctx, id)
}

// ListStressTests returns a buyer's runs, newest first.
func (s *Service) ListStressTests(ctx context.Context, buyerID string, limit int) ([]StressTestRecord, error) {
	return s.stressTests.ListByBuyer(ctx, buyerID, limit)
}
