// ABOUTME: Runs reconciliation immediately and then on a fixed interval
// ABOUTME: Each run gets its own timeout context; Stop cancels the active run

package sync

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	"go.uber.org/zap"
)

// Runner is the unit of work a Scheduler repeats.
type Runner interface {
	Run(ctx context.Context) (*Summary, error)
}

// Scheduler repeats a Runner serially.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *zap.Logger
	after    func(*Summary)

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce gosync.Once
	wg       gosync.WaitGroup
}

// NewScheduler creates a scheduler. after, if non-nil, is called with the
// summary of every run that produced one.
func NewScheduler(runner Runner, interval time.Duration, logger *zap.Logger, after func(*Summary)) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
		after:    after,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the loop in the background.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.loop()
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
}

// Stop cancels the active run and waits for the loop to exit.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
		s.logger.Info("scheduler stopped")
	})
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	s.tick()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.ctx.Done():
			return
		}
	}
}

// tick runs once under the scheduler context, so Stop cancels a run even if
// it lands before the run starts.
func (s *Scheduler) tick() {
	ctx := s.ctx
	if ctx.Err() != nil {
		return
	}

	summary, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		s.logger.Debug("previous run still active, skipping")
		return
	case err != nil && ctx.Err() != nil:
		s.logger.Warn("scheduled run cancelled")
	case err != nil:
		s.logger.Error("scheduled run failed", zap.Error(err))
	}
	if summary != nil && s.after != nil {
		s.after(summary)
	}
}
