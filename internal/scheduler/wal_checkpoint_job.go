package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/abfi/platform/internal/database"
)

// walWarnBytes is the WAL size above which a warning is logged after the checkpoint.
const walWarnBytes = 64 << 20

// WALCheckpointJob truncates the SQLite write-ahead log so it does not grow
// without bound under steady write load.
type WALCheckpointJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewWALCheckpointJob creates a checkpoint job for db.
func NewWALCheckpointJob(db *database.DB, log zerolog.Logger) *WALCheckpointJob {
	return &WALCheckpointJob{
		db:  db,
		log: log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run checkpoints the WAL. A nil database is a no-op.
func (j *WALCheckpointJob) Run() error {
	if j.db == nil {
		return nil
	}

	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		return fmt.Errorf("failed to checkpoint %s: %w", j.db.Name(), err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := j.db.GetStats(ctx)
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to read database stats after checkpoint")
		return nil
	}

	if stats.WALSizeBytes > walWarnBytes {
		j.log.Warn().
			Str("database", j.db.Name()).
			Int64("wal_bytes", stats.WALSizeBytes).
			Msg("WAL file is still large after checkpoint")
	} else {
		j.log.Debug().
			Str("database", j.db.Name()).
			Int64("wal_bytes", stats.WALSizeBytes).
			Int64("size_bytes", stats.SizeBytes).
			Msg("WAL checkpoint completed")
	}
	return nil
}
