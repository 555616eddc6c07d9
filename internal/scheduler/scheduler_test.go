package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/oddsedge/internal/service"
)

type fakeRunner struct {
	calls   atomic.Int32
	err     error
	block   chan struct{}
	lastCtx context.Context
}

func (f *fakeRunner) Run(ctx context.Context) (*service.RunResult, error) {
	f.calls.Add(1)
	f.lastCtx = ctx
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return &service.RunResult{RunStats: service.NewRunStats("run-1")}, nil
}

func newTestScheduler(r Runner, timeout time.Duration) *Scheduler {
	logger, _ := test.NewNullLogger()
	return NewScheduler(r, logger, timeout)
}

func TestScheduleRejectsInvalidExpression(t *testing.T) {
	s := newTestScheduler(&fakeRunner{}, 0)
	require.Error(t, s.Schedule("not a cron"))
}

func TestStartRequiresJob(t *testing.T) {
	s := newTestScheduler(&fakeRunner{}, 0)
	require.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	s := newTestScheduler(&fakeRunner{}, 0)
	require.NoError(t, s.Schedule("*/15 * * * *"))
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.False(t, s.NextRun().IsZero())
	assert.Equal(t, time.UTC, s.NextRun().Location())

	require.Error(t, s.Start())
	require.Error(t, s.Schedule("@hourly"))

	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, s.IsRunning())
	assert.True(t, s.NextRun().IsZero())
	require.NoError(t, s.Stop(context.Background()))
}

func TestRunNowRecordsOutcome(t *testing.T) {
	r := &fakeRunner{}
	s := newTestScheduler(r, time.Minute)

	s.RunNow(context.Background())
	last, err := s.LastRun()
	require.NoError(t, err)
	assert.False(t, last.IsZero())
	assert.Equal(t, int32(1), r.calls.Load())

	_, hasDeadline := r.lastCtx.Deadline()
	assert.True(t, hasDeadline)

	r.err = errors.New("invalid API key")
	s.RunNow(context.Background())
	_, err = s.LastRun()
	assert.EqualError(t, err, "invalid API key")
}

func TestScheduledRunsSkipWhileStillRunning(t *testing.T) {
	r := &fakeRunner{block: make(chan struct{})}
	s := newTestScheduler(r, 0)
	require.NoError(t, s.Schedule("@every 1s"))
	require.NoError(t, s.Start())

	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, int32(1), r.calls.Load())

	close(r.block)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
