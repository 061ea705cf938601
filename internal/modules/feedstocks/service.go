package feedstocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/abfi/platform/internal/archive"
	"github.com/abfi/platform/internal/modules/certificates"
	"github.com/abfi/platform/internal/modules/rating"
	"github.com/abfi/platform/internal/workers"
)

// Recorder receives rating metrics. *metrics.Metrics satisfies it.
type Recorder interface {
	RatingCalculated(score int)
	RatingFailed()
	RescoreCompleted(d time.Duration, scored, failed int)
}

type noopRecorder struct{}

func (noopRecorder) RatingCalculated(int) {}
func (noopRecorder) RatingFailed() {}
func (noopRecorder) RescoreCompleted(time.Duration, int, int) {}

// CertificateRenderer draws a certificate PDF.
type CertificateRenderer interface {
	Render(d certificates.CertificateData) ([]byte, error)
}

// NewFeedstock is the input for CreateFeedstock.
type NewFeedstock struct {
	SupplierID      string
	Name            string
	Category        rating.Category
	CarbonIntensity float64
	Sustainability  rating.SustainabilityInputs
	Quality         map[string]float64
}

// Certificate is a rendered certificate together with its number.
type Certificate struct {
	Number string
	PDF    []byte
}

// Service scores feedstocks and manages the records behind them.
type Service struct {
	suppliers   *SupplierRepository
	feedstocks  *FeedstockRepository
	reliability *ReliabilityRepository
	engine      *rating.Engine
	digest      string
	recorder    Recorder
	pool        *workers.Pool
	renderer    CertificateRenderer
	archiver    archive.Archiver
	now         func() time.Time
	log         zerolog.Logger
}

// NewService creates a feedstock service. digest identifies the standards
// the engine was built from and is stored with every score.
func NewService(
	suppliers *SupplierRepository,
	feedstocks *FeedstockRepository,
	reliability *ReliabilityRepository,
	engine *rating.Engine,
	digest string,
	log zerolog.Logger,
) *Service {
	if engine == nil {
		engine = rating.DefaultEngine()
		digest = rating.BuiltinStandardsDigest
	}
	return &Service{
		suppliers:   suppliers,
		feedstocks:  feedstocks,
		reliability: reliability,
		engine:      engine,
		digest:      digest,
		recorder:    noopRecorder{},
		pool:        workers.NewPool(workers.DefaultWorkers),
		renderer:    certificates.NewRenderer(log),
		archiver:    archive.NoopArchiver{},
		now:         time.Now,
		log:         log.With().Str("service", "feedstocks").Logger(),
	}
}

// SetRecorder sets the metrics recorder
func (s *Service) SetRecorder(r Recorder) {
	if r != nil {
		s.recorder = r
	}
}

// SetPool sets the worker pool used by RescoreAll
func (s *Service) SetPool(p *workers.Pool) {
	if p != nil {
		s.pool = p
	}
}

// SetRenderer sets the certificate renderer
func (s *Service) SetRenderer(r CertificateRenderer) {
	if r != nil {
		s.renderer = r
	}
}

// SetArchiver sets where rating audit bundles are stored
func (s *Service) SetArchiver(a archive.Archiver) {
	if a != nil {
		s.archiver = a
	}
}

// StandardsDigest returns the digest stored with new scores.
func (s *Service) StandardsDigest() string {
	return s.digest
}

// Engine returns the rating engine.
func (s *Service) Engine() *rating.Engine {
	return s.engine
}

func (s *Service) timestamp() time.Time {
	// Rows store unix seconds
	return s.now().UTC().Truncate(time.Second)
}

// =============================================================================
// SUPPLIERS
// =============================================================================

// CreateSupplier registers a supplier.
func (s *Service) CreateSupplier(ctx context.Context, name, abn, region string) (*Supplier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidSupplier)
	}
	sup := &Supplier{
		ID:        uuid.NewString(),
		Name:      name,
		ABN:       strings.TrimSpace(abn),
		Region:    strings.TrimSpace(region),
		CreatedAt: s.timestamp(),
	}
	if err := s.suppliers.Create(ctx, sup); err != nil {
		return nil, err
	}
	s.log.Info().Str("supplier_id", sup.ID).Str("name", sup.Name).Msg("Supplier registered")
	return sup, nil
}

// GetSupplier returns a supplier or ErrNotFound.
func (s *Service) GetSupplier(ctx context.Context, id string) (*Supplier, error) {
	return s.suppliers.GetByID(ctx, id)
}

// ListSuppliers returns every supplier.
func (s *Service) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	return s.suppliers.List(ctx)
}

// UpsertReliability records a supplier's latest operational history. Scores
// are not recalculated until the next ScoreFeedstock or RescoreAll.
func (s *Service) UpsertReliability(ctx context.Context, supplierID string, in rating.ReliabilityInputs) (*Reliability, error) {
	if _, err := s.suppliers.GetByID(ctx, supplierID); err != nil {
		return nil, err
	}
	rel := &Reliability{SupplierID: supplierID, Inputs: in, UpdatedAt: s.timestamp()}
	if err := s.reliability.Upsert(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// =============================================================================
// FEEDSTOCKS
// =============================================================================

// CreateFeedstock stores a new unscored feedstock for an existing supplier.
func (s *Service) CreateFeedstock(ctx context.Context, in NewFeedstock) (*Feedstock, error) {
	if _, err := s.engine.QualityTable(in.Category); err != nil {
		return nil, err
	}
	if _, err := s.suppliers.GetByID(ctx, in.SupplierID); err != nil {
		return nil, err
	}
	if in.Sustainability.Certification == "" {
		in.Sustainability.Certification = rating.CertificationNone
	}

	f := &Feedstock{
		ID:              uuid.NewString(),
		SupplierID:      in.SupplierID,
		Name:            strings.TrimSpace(in.Name),
		Category:        in.Category,
		CarbonIntensity: in.CarbonIntensity,
		Sustainability:  in.Sustainability,
		Quality:         in.Quality,
		CreatedAt:       s.timestamp(),
	}
	if f.Quality == nil {
		f.Quality = map[string]float64{}
	}
	if err := s.feedstocks.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// GetFeedstock returns a feedstock with its latest score, if any.
func (s *Service) GetFeedstock(ctx context.Context, id string) (*Feedstock, error) {
	return s.feedstocks.GetByID(ctx, id)
}

// ListFeedstocks returns feedstocks matching filter, best scores first.
func (s *Service) ListFeedstocks(ctx context.Context, filter ListFilter) ([]Feedstock, error) {
	return s.feedstocks.List(ctx, filter)
}

// =============================================================================
// SCORING
// =============================================================================

// Calculate runs the engine without touching storage.
func (s *Service) Calculate(
	sustainability rating.SustainabilityInputs,
	carbonIntensity float64,
	quality rating.QualityInputs,
	reliability rating.ReliabilityInputs,
) (rating.AbfiScoreResult, error) {
	res, err := s.engine.AbfiScore(sustainability, carbonIntensity, quality, reliability)
	if err != nil {
		s.recorder.RatingFailed()
		return rating.AbfiScoreResult{}, err
	}
	s.recorder.RatingCalculated(res.AbfiScore)
	return res, nil
}

type ratingSnapshot struct {
	FeedstockID     string                      `json:"feedstock_id"`
	SupplierID      string                      `json:"supplier_id"`
	Sustainability  rating.SustainabilityInputs `json:"sustainability"`
	CarbonIntensity float64                     `json:"carbon_intensity"`
	Quality         rating.QualityInputs        `json:"quality"`
	Reliability     rating.ReliabilityInputs    `json:"reliability"`
	StandardsDigest string                      `json:"standards_digest"`
}

// ScoreFeedstock rates a stored feedstock against its supplier's current
// reliability history and persists the result. A supplier without a
// reliability record is scored with zero history.
func (s *Service) ScoreFeedstock(ctx context.Context, id string) (*Feedstock, error) {
	f, err := s.feedstocks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var rel rating.ReliabilityInputs
	record, err := s.reliability.GetBySupplier(ctx, f.SupplierID)
	switch {
	case err == nil:
		rel = record.Inputs
	case errors.Is(err, ErrNotFound):
		s.log.Debug().Str("supplier_id", f.SupplierID).Msg("No reliability history, scoring with zero inputs")
	default:
		return nil, err
	}

	res, err := s.Calculate(f.Sustainability, f.CarbonIntensity, f.QualityInputs(), rel)
	if err != nil {
		return nil, fmt.Errorf("failed to score feedstock %s: %w", id, err)
	}

	score := NewScore(res, s.digest, s.timestamp())
	if err := s.feedstocks.UpdateScore(ctx, id, score); err != nil {
		return nil, err
	}
	f.Score = &score

	s.log.Debug().
		Str("feedstock_id", id).
		Int("abfi_score", score.AbfiScore).
		Str("tier", string(score.Tier)).
		Msg("Feedstock scored")

	s.archiveScore(ctx, f, rel, res)
	return f, nil
}

func (s *Service) archiveScore(ctx context.Context, f *Feedstock, rel rating.ReliabilityInputs, res rating.AbfiScoreResult) {
	snapshot := ratingSnapshot{
		FeedstockID:     f.ID,
		SupplierID:      f.SupplierID,
		Sustainability:  f.Sustainability,
		CarbonIntensity: f.CarbonIntensity,
		Quality:         f.QualityInputs(),
		Reliability:     rel,
		StandardsDigest: s.digest,
	}
	bundle, err := archive.NewBundle(archive.KindRating, uuid.NewString(), f.Score.ScoredAt, snapshot, res)
	if err == nil {
		err = s.archiver.Archive(ctx, bundle)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("feedstock_id", f.ID).Msg("Failed to archive rating")
	}
}

// RescoreAll rescores every feedstock on the worker pool. Individual failures
// are logged and counted. The returned error is non-nil only when the ID
// listing fails or ctx is cancelled before the run completes.
func (s *Service) RescoreAll(ctx context.Context) (RescoreSummary, error) {
	start := time.Now()

	ids, err := s.feedstocks.ListIDs(ctx)
	if err != nil {
		return RescoreSummary{}, err
	}

	errs := s.pool.Run(ctx, len(ids), func(ctx context.Context, i int) error {
		_, err := s.ScoreFeedstock(ctx, ids[i])
		return err
	})

	summary := RescoreSummary{Total: len(ids)}
	for i, err := range errs {
		if err != nil {
			summary.Failed++
			s.log.Warn().Err(err).Str("feedstock_id", ids[i]).Msg("Failed to rescore feedstock")
			continue
		}
		summary.Scored++
	}
	summary.Duration = time.Since(start)
	s.recorder.RescoreCompleted(summary.Duration, summary.Scored, summary.Failed)

	s.log.Info().
		Int("total", summary.Total).
		Int("scored", summary.Scored).
		Int("failed", summary.Failed).
		Dur("duration", summary.Duration).
		Msg("Rescore completed")

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// =============================================================================
// CERTIFICATES
// =============================================================================

// Certificate renders a PDF for the latest stored score. Returns ErrNotScored
// when the feedstock has never been rated.
func (s *Service) Certificate(ctx context.Context, id string) (*Certificate, error) {
	f, err := s.feedstocks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Score == nil {
		return nil, fmt.Errorf("feedstock %s: %w", id, ErrNotScored)
	}
	sup, err := s.suppliers.GetByID(ctx, f.SupplierID)
	if err != nil {
		return nil, err
	}

	issued := s.timestamp()
	number := certificates.NewCertificateNumber(issued)
	pdf, err := s.renderer.Render(certificates.CertificateData{
		Number:          number,
		FeedstockName:   f.Name,
		SupplierName:    sup.Name,
		Category:        f.Category,
		Result:          f.Score.Result(f.CarbonIntensity),
		StandardsDigest: f.Score.StandardsDigest,
		IssuedAt:        issued,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("feedstock_id", id).Str("number", number).Msg("Certificate issued")
	return &Certificate{Number: number, PDF: pdf}, nil
}
