package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFunc is a maintenance task run on a fixed interval.
type TaskFunc func(context.Context) error

type task struct {
	name     string
	interval time.Duration
	run      TaskFunc
}

// SchedulerConfig configures retry behaviour for failing tasks.
type SchedulerConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Scheduler runs registered maintenance tasks on their own tickers. Each
// task gets one goroutine; a failing run is retried with a delay before
// waiting for the next tick.
type Scheduler struct {
	tasks      []task
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewScheduler builds an empty scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Scheduler{
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
	}
}

// Register adds a task. Must be called before Start.
func (s *Scheduler) Register(name string, interval time.Duration, fn TaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || interval <= 0 {
		return
	}
	s.tasks = append(s.tasks, task{name: name, interval: interval, run: fn})
}

// Start launches one goroutine per registered task. Safe to call once.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, t)
	}
	s.started = true
	s.logger.Sugar().Infow("scheduler started", "tasks", len(s.tasks))
}

// Stop cancels all task loops and waits for them to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Sugar().Infow("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, t task) {
	defer s.wg.Done()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runWithRetry(ctx, t)
		}
	}
}

func (s *Scheduler) runWithRetry(ctx context.Context, t task) {
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err := t.run(ctx)
		if err == nil {
			return
		}
		s.logger.Sugar().Warnw("task failed", "task", t.name, "attempt", attempt, "error", err)
		if attempt == s.maxRetries {
			s.logger.Sugar().Errorw("task exceeded retries", "task", t.name, "error", err)
			return
		}
		timer := time.NewTimer(s.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
