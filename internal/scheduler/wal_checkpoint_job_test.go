package scheduler

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "github.com/abfi/platform/internal/testing"
)

func TestWALCheckpointJob_Name(t *testing.T) {
	job := NewWALCheckpointJob(nil, zerolog.Nop())
	assert.Equal(t, "wal_checkpoint", job.Name())
}

func TestWALCheckpointJob_Run_NilDatabase(t *testing.T) {
	job := NewWALCheckpointJob(nil, zerolog.Nop())
	assert.NoError(t, job.Run())
}

func TestWALCheckpointJob_Run_TruncatesWAL(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "abfi")
	defer cleanup()

	_, err := db.Conn().Exec(`INSERT INTO suppliers (id, name, abn, region, created_at) VALUES ('s1', 'Acme', '', '', 0)`)
	require.NoError(t, err)

	job := NewWALCheckpointJob(db, zerolog.Nop())
	require.NoError(t, job.Run())

	stats, err := db.GetStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.WALSizeBytes)
}
