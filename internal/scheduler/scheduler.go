// Package scheduler triggers engine runs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/oddsedge/internal/service"
)

// Runner executes one end-to-end run
type Runner interface {
	Run(ctx context.Context) (*service.RunResult, error)
}

// Scheduler runs the pipeline on a cron schedule in UTC. A tick that fires
// while the previous run is still going is skipped.
type Scheduler struct {
	cron       *cron.Cron
	runner     Runner
	logger     *logrus.Entry
	runTimeout time.Duration

	mu        sync.RWMutex
	isRunning bool
	jobID     cron.EntryID
	scheduled bool
	lastRun   time.Time
	lastErr   error
}

// NewScheduler creates a new scheduler. runTimeout bounds every run; zero
// means no bound.
func NewScheduler(runner Runner, logger *logrus.Logger, runTimeout time.Duration) *Scheduler {
	entry := logger.WithField("component", "scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(entry))),
		),
		runner:     runner,
		logger:     entry,
		runTimeout: runTimeout,
	}
}

// Schedule registers the run job with a standard five-field cron expression
func (s *Scheduler) Schedule(cronExpression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if s.scheduled {
		s.cron.Remove(s.jobID)
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() { s.RunNow(context.Background()) })
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobID = entryID
	s.scheduled = true
	s.logger.WithField("cron", cronExpression).Info("Scheduled engine run")
	return nil
}

// RunNow executes one run synchronously and records its outcome
func (s *Scheduler) RunNow(ctx context.Context) {
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	res, err := s.runner.Run(ctx)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.WithError(err).Error("Scheduled run failed")
		return
	}
	s.logger.WithField("stats", res.String()).Info("Scheduled run completed")
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if !s.scheduled {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running job until ctx ends
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop interrupted: %w", ctx.Err())
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the time of the next scheduled run
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || !s.scheduled {
		return time.Time{}
	}
	return s.cron.Entry(s.jobID).Next
}

// LastRun returns when the last run finished and its error
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun, s.lastErr
}
