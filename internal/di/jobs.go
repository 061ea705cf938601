package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/abfi/platform/internal/config"
	"github.com/abfi/platform/internal/scheduler"
)

// walCheckpointSchedule runs the checkpoint every 15 minutes.
const walCheckpointSchedule = "0 */15 * * * *"

// RegisterJobs creates the scheduler and registers background jobs on it.
// The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	sched := scheduler.New(log)
	container.Scheduler = sched

	jobs := &JobInstances{
		Rescore:       scheduler.NewRescoreJob(container.FeedstockService, cfg.RescoreTimeout, log),
		WALCheckpoint: scheduler.NewWALCheckpointJob(container.DB, log),
	}

	if cfg.RescoreSchedule != "" {
		if err := sched.AddJob(cfg.RescoreSchedule, jobs.Rescore); err != nil {
			return nil, fmt.Errorf("failed to register rescore job: %w", err)
		}
	} else {
		log.Info().Msg("Nightly rescoring disabled (empty RESCORE_SCHEDULE)")
	}

	if err := sched.AddJob(walCheckpointSchedule, jobs.WALCheckpoint); err != nil {
		return nil, fmt.Errorf("failed to register WAL checkpoint job: %w", err)
	}

	return jobs, nil
}
