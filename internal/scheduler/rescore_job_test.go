package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abfi/platform/internal/modules/feedstocks"
)

type stubRescorer struct {
	summary  feedstocks.RescoreSummary
	err      error
	deadline time.Time
	calls    int
}

func (r *stubRescorer) RescoreAll(ctx context.Context) (feedstocks.RescoreSummary, error) {
	r.calls++
	r.deadline, _ = ctx.Deadline()
	return r.summary, r.err
}

func TestRescoreJob_Name(t *testing.T) {
	job := NewRescoreJob(&stubRescorer{}, 0, zerolog.Nop())
	assert.Equal(t, "rescore_feedstocks", job.Name())
	assert.Equal(t, DefaultRescoreTimeout, job.timeout)
}

func TestRescoreJob_Run_AppliesTimeout(t *testing.T) {
	r := &stubRescorer{summary: feedstocks.RescoreSummary{Total: 3, Scored: 3}}
	job := NewRescoreJob(r, time.Minute, zerolog.Nop())

	before := time.Now()
	require.NoError(t, job.Run())

	assert.Equal(t, 1, r.calls)
	assert.WithinDuration(t, before.Add(time.Minute), r.deadline, 5*time.Second)
}

func TestRescoreJob_Run_PartialFailureIsNotAnError(t *testing.T) {
	r := &stubRescorer{summary: feedstocks.RescoreSummary{Total: 5, Scored: 4, Failed: 1}}
	job := NewRescoreJob(r, time.Minute, zerolog.Nop())

	assert.NoError(t, job.Run())
}

func TestRescoreJob_Run_PropagatesError(t *testing.T) {
	r := &stubRescorer{
		summary: feedstocks.RescoreSummary{Total: 10, Scored: 2},
		err:     context.DeadlineExceeded,
	}
	job := NewRescoreJob(r, time.Minute, zerolog.Nop())

	err := job.Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "2 of 10")
}
