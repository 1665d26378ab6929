package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
	"github.com/custodia-labs/ndavault/internal/core/ports/driving"
	"github.com/custodia-labs/ndavault/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// TaskFunc runs one scheduled task and returns the number of items handled.
type TaskFunc func(ctx context.Context) (int, error)

// ReportTaskFunc is a task that also breaks its items down by category.
type ReportTaskFunc func(ctx context.Context) (items int, counts map[string]int, err error)

// historyRetention is the number of results kept per task.
const historyRetention = 100

// Scheduler runs registered background tasks at their configured intervals.
type Scheduler struct {
	config domain.SchedulerConfig
	store  driven.SchedulerStore
	tick   time.Duration
	now    func() time.Time

	mu      sync.Mutex
	tasks   map[string]registeredTask
	busy    map[string]bool
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

type registeredTask struct {
	name string
	run  ReportTaskFunc
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(config domain.SchedulerConfig, store driven.SchedulerStore) *Scheduler {
	return &Scheduler{
		config: config,
		store:  store,
		tick:   time.Minute,
		now:    time.Now,
		tasks:  make(map[string]registeredTask),
		busy:   make(map[string]bool),
	}
}

// Register adds a task. Tasks without an enabled config entry never run.
func (s *Scheduler) Register(id, name string, run TaskFunc) {
	s.RegisterReport(id, name, func(ctx context.Context) (int, map[string]int, error) {
		n, err := run(ctx)
		return n, nil, err
	})
}

// RegisterReport adds a task whose results carry per-category counts.
func (s *Scheduler) RegisterReport(id, name string, run ReportTaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[id] = registeredTask{name: name, run: run}
}

// SetTick changes how often due tasks are checked.
func (s *Scheduler) SetTick(d time.Duration) {
	s.tick = d
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		logger.Debug("Scheduler disabled")
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("scheduler: failed to initialise tasks: %v", err)
	}

	err := s.run(ctx, stopCh)
	s.wg.Wait()
	return err
}

// Stop gracefully shuts down the scheduler and waits for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// initialiseTasks ensures every registered, enabled task exists in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.tasks {
		cfg := s.config.GetTaskConfig(id)
		if err := s.ensureTask(ctx, id, t.name, cfg); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		// First run happens immediately.
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = s.now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

func (s *Scheduler) run(ctx context.Context, stopCh chan struct{}) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks runs every task whose next run has arrived.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: failed to list tasks: %v", err)
		return
	}

	now := s.now()
	for i := range tasks {
		if tasks[i].IsDue(now) {
			task := tasks[i]
			s.runTask(ctx, &task)
		}
	}
}

// RunNow executes a task synchronously regardless of its schedule.
func (s *Scheduler) RunNow(ctx context.Context, id string) (*domain.TaskResult, error) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: task %s", domain.ErrNotFound, id)
	}

	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		task = &domain.ScheduledTask{ID: id, Name: t.name, Interval: s.config.GetTaskConfig(id).Interval}
	}
	return s.execute(ctx, task, t.run), nil
}

// runTask executes a single task in the background.
// A task still running from an earlier tick is skipped.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.mu.Lock()
	t, ok := s.tasks[task.ID]
	if !ok {
		s.mu.Unlock()
		logger.Warn("scheduler: unknown task ID: %s", task.ID)
		return
	}
	if s.busy[task.ID] {
		s.mu.Unlock()
		return
	}
	s.busy[task.ID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.busy, task.ID)
			s.mu.Unlock()
		}()
		// The listing may predate a run that just finished.
		if fresh, err := s.store.GetTask(ctx, task.ID); err == nil && fresh != nil {
			if !fresh.IsDue(s.now()) {
				return
			}
			task = fresh
		}
		s.execute(ctx, task, t.run)
	}()
}

// execute runs the task and records its outcome.
func (s *Scheduler) execute(ctx context.Context, task *domain.ScheduledTask, run ReportTaskFunc) *domain.TaskResult {
	result := &domain.TaskResult{
		TaskID:    task.ID,
		StartedAt: s.now(),
	}

	items, counts, err := run(ctx)
	result.ItemsProcessed = items
	result.Counts = counts
	result.EndedAt = s.now()
	if err != nil {
		result.Error = err.Error()
		task.LastError = err.Error()
		logger.Warn("scheduler: task %s failed: %v", task.ID, err)
	} else {
		result.Success = true
		task.LastError = ""
		task.LastSuccess = result.EndedAt
		logger.Debug("scheduler: task %s handled %d items", task.ID, items)
	}

	task.LastRun = result.StartedAt
	task.NextRun = result.EndedAt.Add(task.Interval)

	if err := s.store.SaveTask(ctx, task); err != nil {
		logger.Warn("scheduler: failed to save task %s: %v", task.ID, err)
	}
	if err := s.store.RecordResult(ctx, result); err != nil {
		logger.Warn("scheduler: failed to record result for %s: %v", task.ID, err)
	}
	if err := s.store.PruneHistory(ctx, historyRetention); err != nil {
		logger.Warn("scheduler: failed to prune history: %v", err)
	}
	return result
}

// ExpirationScanTask reports contracts that are near expiration or expired.
// It returns the number of flagged contracts and the count of every
// expiration class.
func ExpirationScanTask(docs driving.DocumentService) ReportTaskFunc {
	return func(ctx context.Context) (int, map[string]int, error) {
		report, err := docs.ExpirationReport(ctx, time.Now())
		if err != nil {
			return 0, nil, err
		}
		flagged := 0
		for _, e := range report.Entries {
			switch e.Class {
			case domain.ExpirationPassed:
				logger.Warn("%s expired %d days ago (%s)", e.Filename, -*e.DaysRemaining, e.WorkflowStatus)
				flagged++
			case domain.ExpirationNear:
				logger.Info("%s expires in %d days (%s)", e.Filename, *e.DaysRemaining, e.WorkflowStatus)
				flagged++
			}
		}
		counts := make(map[string]int, 4)
		for class, n := range report.Counts() {
			counts[class.String()] = n
		}
		return flagged, counts, nil
	}
}
