package arena

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
)

// Retention prunes old match results on a cron schedule.
type Retention struct {
	store    *ResultStore
	schedule string
	maxAge   time.Duration
	cron     *cron.Cron
	logger   *log.Logger

	mu      sync.Mutex
	running bool
}

func NewRetention(store *ResultStore, schedule string, maxAge time.Duration) *Retention {
	return &Retention{
		store:    store,
		schedule: schedule,
		maxAge:   maxAge,
		cron:     cron.New(),
		logger:   log.WithPrefix("retention"),
	}
}

// Start schedules pruning until ctx is done. An empty schedule or a
// non-positive max age disables it.
func (r *Retention) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.schedule == "" || r.maxAge <= 0 {
		r.logger.Info("Result retention not configured, skipping")
		return nil
	}
	if _, err := cron.ParseStandard(r.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", r.schedule, err)
	}

	if _, err := r.cron.AddFunc(r.schedule, func() { r.runPruning(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}
	r.cron.Start()
	r.running = true
	r.logger.Info("Result retention started", "schedule", r.schedule, "max_age", r.maxAge)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	return nil
}

func (r *Retention) runPruning(ctx context.Context) {
	deleted, err := r.Prune(ctx)
	if err != nil {
		r.logger.Error("Scheduled pruning failed", "error", err)
		return
	}
	if deleted > 0 {
		r.logger.Info("Scheduled pruning completed", "deleted", deleted)
	} else {
		r.logger.Debug("Scheduled pruning completed, nothing to delete")
	}
}

func (r *Retention) Prune(ctx context.Context) (int64, error) {
	return r.store.PruneOlderThan(ctx, r.maxAge)
}

// Stop halts the schedule and waits for a running prune to finish.
func (r *Retention) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		<-r.cron.Stop().Done()
		r.running = false
		r.logger.Info("Result retention stopped")
	}
}

func (r *Retention) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// NextRun is the next scheduled prune, or nil when not running.
func (r *Retention) NextRun() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.cron.Entries()
	if !r.running || len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
