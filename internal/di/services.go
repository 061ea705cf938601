package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/abfi/platform/internal/archive"
	"github.com/abfi/platform/internal/config"
	"github.com/abfi/platform/internal/metrics"
	"github.com/abfi/platform/internal/modules/bankability"
	bankabilityhandlers "github.com/abfi/platform/internal/modules/bankability/handlers"
	"github.com/abfi/platform/internal/modules/feedstocks"
	feedstockhandlers "github.com/abfi/platform/internal/modules/feedstocks/handlers"
	"github.com/abfi/platform/internal/modules/rating"
	"github.com/abfi/platform/internal/modules/stresstest"
	"github.com/abfi/platform/internal/workers"
)

// InitializeServices builds engines, repositories, services and handlers on
// top of an initialized database.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.DB == nil {
		return fmt.Errorf("container has no database")
	}

	// Engines
	loaded, err := cfg.LoadStandards()
	if err != nil {
		return err
	}
	ratingEngine, err := rating.NewEngine(loaded.Standards)
	if err != nil {
		return fmt.Errorf("failed to create rating engine: %w", err)
	}
	container.RatingEngine = ratingEngine
	container.StandardsDigest = loaded.Digest

	stressEngine, err := stresstest.NewEngine(cfg.Covenant)
	if err != nil {
		return fmt.Errorf("failed to create stress test engine: %w", err)
	}
	container.StressTestEngine = stressEngine

	log.Info().
		Str("standards_digest", loaded.Digest).
		Float64("min_supply_coverage", cfg.Covenant.MinSupplyCoverage).
		Float64("max_cost_increase", cfg.Covenant.MaxCostIncrease).
		Msg("Engines initialized")

	// Infrastructure
	container.Metrics = metrics.New()
	container.WorkerPool = workers.NewPool(cfg.RescoreWorkers)

	archiver, err := newArchiver(ctx, cfg.Archive, log)
	if err != nil {
		return err
	}
	container.Archiver = archiver

	// Repositories
	conn := container.DB.Conn()
	container.SupplierRepo = feedstocks.NewSupplierRepository(conn, log)
	container.FeedstockRepo = feedstocks.NewFeedstockRepository(conn, log)
	container.ReliabilityRepo = feedstocks.NewReliabilityRepository(conn, log)
	container.TransactionRepo = bankability.NewTransactionRepository(conn, log)
	container.StressTestRepo = bankability.NewStressTestRepository(conn, log)

	// Services
	feedstockService := feedstocks.NewService(
		container.SupplierRepo,
		container.FeedstockRepo,
		container.ReliabilityRepo,
		ratingEngine,
		loaded.Digest,
		log,
	)
	feedstockService.SetRecorder(container.Metrics)
	feedstockService.SetPool(container.WorkerPool)
	feedstockService.SetArchiver(archiver)
	container.FeedstockService = feedstockService

	bankabilityService := bankability.NewService(
		container.TransactionRepo,
		container.StressTestRepo,
		stressEngine,
		log,
	)
	bankabilityService.SetRecorder(container.Metrics)
	bankabilityService.SetArchiver(archiver)
	container.BankabilityService = bankabilityService

	// Handlers
	container.FeedstockHandler = feedstockhandlers.NewHandler(feedstockService, log)
	container.BankabilityHandler = bankabilityhandlers.NewHandler(bankabilityService, log)

	return nil
}

func newArchiver(ctx context.Context, cfg config.ArchiveConfig, log zerolog.Logger) (archive.Archiver, error) {
	if !cfg.Enabled() {
		log.Info().Msg("Audit archive disabled (no ARCHIVE_BUCKET)")
		return archive.NoopArchiver{}, nil
	}

	s3Archiver, err := archive.NewS3Archiver(ctx, archive.S3Config{
		Bucket:          cfg.Bucket,
		Prefix:          cfg.Prefix,
		Endpoint:        cfg.Endpoint,
		Region:          cfg.Region,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit archiver: %w", err)
	}

	log.Info().Str("bucket", cfg.Bucket).Str("prefix", cfg.Prefix).Msg("Audit archive enabled")
	return s3Archiver, nil
}
