// Package jobs runs background work on cron schedules
package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spectrum-media/quote-api/internal/logger"
	"github.com/spectrum-media/quote-api/internal/metrics"
	"go.uber.org/zap"
)

// JobFunc is a unit of scheduled work. The context carries the job timeout.
type JobFunc func(ctx context.Context) error

// Scheduler manages background jobs using cron expressions with a seconds field
type Scheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	metrics *metrics.JobMetrics
	mu      sync.Mutex
	jobs    map[string]cron.EntryID
}

// NewScheduler creates a scheduler. Overlapping runs of a job are skipped and
// panics are recovered.
func NewScheduler(logger *zap.Logger, jobMetrics *metrics.JobMetrics) *Scheduler {
	cl := cronLogger{logger: logger.Sugar()}
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(
			cron.SkipIfStillRunning(cl),
			cron.Recover(cl),
		)),
		logger:  logger,
		metrics: jobMetrics,
		jobs:    make(map[string]cron.EntryID),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("starting job scheduler", zap.Strings("jobs", s.JobNames()))
	s.cron.Start()
}

// Stop stops scheduling; the returned context is done when running jobs finish
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("stopping job scheduler")
	return s.cron.Stop()
}

// AddJob registers job under name. Each run gets its own timeout and is
// recorded in the job metrics.
func (s *Scheduler) AddJob(name, cronExpr string, timeout time.Duration, job JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	entryID, err := s.cron.AddFunc(cronExpr, func() {
		_ = s.run(name, timeout, job)
	})
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.logger.Info("added scheduled job", zap.String("job_name", name), zap.String("cron_expr", cronExpr))
	return nil
}

// RunNow executes a registered job's function synchronously, outside the schedule
func (s *Scheduler) RunNow(name string, timeout time.Duration, job JobFunc) error {
	return s.run(name, timeout, job)
}

func (s *Scheduler) run(name string, timeout time.Duration, job JobFunc) error {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := job(ctx)
	duration := time.Since(start)
	s.metrics.ObserveDuration(name, duration)

	jobLog := logger.WithJob(s.logger, name)
	if err != nil {
		s.metrics.IncFailure(name)
		jobLog.Error("scheduled job failed", zap.Duration("duration", duration), zap.Error(err))
		return err
	}
	s.metrics.IncSuccess(name)
	jobLog.Info("completed scheduled job", zap.Duration("duration", duration))
	return nil
}

// RemoveJob removes a job by name
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}
	s.cron.Remove(entryID)
	delete(s.jobs, name)
	return nil
}

// JobNames returns the registered job names in order
func (s *Scheduler) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// cronLogger routes cron's own messages to zap
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
