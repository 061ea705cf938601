// Package di wires the application's databases, services, handlers and jobs.
package di

import (
	"github.com/abfi/platform/internal/archive"
	"github.com/abfi/platform/internal/database"
	"github.com/abfi/platform/internal/metrics"
	"github.com/abfi/platform/internal/modules/bankability"
	bankabilityhandlers "github.com/abfi/platform/internal/modules/bankability/handlers"
	"github.com/abfi/platform/internal/modules/feedstocks"
	feedstockhandlers "github.com/abfi/platform/internal/modules/feedstocks/handlers"
	"github.com/abfi/platform/internal/modules/rating"
	"github.com/abfi/platform/internal/modules/stresstest"
	"github.com/abfi/platform/internal/scheduler"
	"github.com/abfi/platform/internal/workers"
)

// Container holds every long-lived dependency. It is the single source of
// truth for service instances.
type Container struct {
	DB *database.DB

	// Engines
	RatingEngine     *rating.Engine
	StandardsDigest  string
	StressTestEngine *stresstest.Engine

	// Infrastructure
	Metrics    *metrics.Metrics
	Archiver   archive.Archiver
	WorkerPool *workers.Pool

	// Repositories
	SupplierRepo    *feedstocks.SupplierRepository
	FeedstockRepo   *feedstocks.FeedstockRepository
	ReliabilityRepo *feedstocks.ReliabilityRepository
	TransactionRepo *bankability.TransactionRepository
	StressTestRepo  *bankability.StressTestRepository

	// Services
	FeedstockService   *feedstocks.Service
	BankabilityService *bankability.Service

	// Handlers
	FeedstockHandler   *feedstockhandlers.Handler
	BankabilityHandler *bankabilityhandlers.Handler

	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered background jobs. RescoreJob is set even
// when no schedule is configured so it can be triggered manually.
type JobInstances struct {
	Rescore       *scheduler.RescoreJob
	WALCheckpoint *scheduler.WALCheckpointJob
}

// Close releases the container's resources
func (c *Container) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
