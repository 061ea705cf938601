package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/abfi/platform/internal/modules/feedstocks"
)

// DefaultRescoreTimeout bounds a single rescoring run.
const DefaultRescoreTimeout = 30 * time.Minute

// Rescorer is satisfied by feedstocks.Service.
type Rescorer interface {
	RescoreAll(ctx context.Context) (feedstocks.RescoreSummary, error)
}

// RescoreJob recomputes every stored feedstock score with the current
// standards and reliability history.
type RescoreJob struct {
	rescorer Rescorer
	timeout  time.Duration
	log      zerolog.Logger
}

// NewRescoreJob creates the job. A non-positive timeout uses DefaultRescoreTimeout.
func NewRescoreJob(rescorer Rescorer, timeout time.Duration, log zerolog.Logger) *RescoreJob {
	if timeout <= 0 {
		timeout = DefaultRescoreTimeout
	}
	return &RescoreJob{
		rescorer: rescorer,
		timeout:  timeout,
		log:      log.With().Str("job", "rescore_feedstocks").Logger(),
	}
}

// Name returns the job name
func (j *RescoreJob) Name() string {
	return "rescore_feedstocks"
}

// Run executes the rescore. Per-feedstock failures are reported by the
// rescorer and do not fail the job.
func (j *RescoreJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	summary, err := j.rescorer.RescoreAll(ctx)
	if err != nil {
		return fmt.Errorf("rescore failed after %d of %d feedstocks: %w", summary.Scored, summary.Total, err)
	}

	if summary.Failed > 0 {
		j.log.Warn().
			Int("failed", summary.Failed).
			Int("total", summary.Total).
			Msg("Some feedstocks could not be rescored")
	}
	return nil
}
