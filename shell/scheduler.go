package shell

import (
	"context"
	"sync"
	"time"

	"github.com/shelfwise/circulation-go/circulation"
)

// Task is one periodic unit of work, run on a fixed interval. Tasks must be
// idempotent: the scheduler gives no exclusivity guarantee, and sweeps run
// concurrently with user-triggered operations.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs registered tasks on their intervals until the context is
// cancelled. Each task gets its own ticker goroutine; a failing run is logged
// and the schedule continues.
type Scheduler struct {
	tasks  []Task
	logger circulation.Logger
}

// NewScheduler creates a scheduler that logs through the given logger.
func NewScheduler(logger circulation.Logger) *Scheduler {
	if logger == nil {
		logger = circulation.NoopLogger{}
	}

	return &Scheduler{logger: logger}
}

// Register adds a task to the schedule. Must be called before Start.
func (s *Scheduler) Register(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start runs all registered tasks until ctx is cancelled, then returns after
// every task goroutine has stopped. Each task also runs once immediately on
// start so a freshly booted process catches up without waiting a full interval.
func (s *Scheduler) Start(ctx context.Context) {
	var wg sync.WaitGroup

	for _, task := range s.tasks {
		wg.Add(1)

		go func(task Task) {
			defer wg.Done()
			s.runLoop(ctx, task)
		}(task)
	}

	wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, task Task) {
	s.runOnce(ctx, task)

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, task)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, task Task) {
	start := time.Now()

	if err := task.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}

		s.logger.Error("scheduled task failed",
			"task", task.Name,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err.Error(),
		)

		return
	}

	s.logger.Debug("scheduled task completed",
		"task", task.Name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
