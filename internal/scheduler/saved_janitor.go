package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/jobscout/internal/logger"
)

// DefaultJanitorInterval is the default time between two sweeps
const DefaultJanitorInterval = 24 * time.Hour

// Sweeper removes saved-job index entries that point at missing records
type Sweeper interface {
	SweepDangling(ctx context.Context) (int, error)
}

// SavedJanitor periodically cleans the saved-jobs indexes
type SavedJanitor struct {
	sweeper  Sweeper
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSavedJanitor creates a new janitor
func NewSavedJanitor(sweeper Sweeper, log logger.Logger, interval time.Duration) *SavedJanitor {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}

	return &SavedJanitor{
		sweeper:  sweeper,
		logger:   log.Named("janitor"),
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (j *SavedJanitor) Start(ctx context.Context) error {
	// Run immediately on start
	if _, err := j.Sweep(ctx); err != nil {
		j.logger.Warn("initial saved index sweep failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(j.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := j.Sweep(ctx); err != nil {
					j.logger.Error("saved index sweep failed",
						logger.Error(err))
				}
			case <-j.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the janitor
func (j *SavedJanitor) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
}

// Sweep runs one cleanup pass
func (j *SavedJanitor) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	removed, err := j.sweeper.SweepDangling(ctx)
	if err != nil {
		return removed, err
	}

	if removed > 0 {
		j.logger.Info("saved index sweep completed",
			logger.Int("entries_removed", removed),
			logger.Duration("took", time.Since(start)))
	} else {
		j.logger.Debug("no dangling saved index entries")
	}

	return removed, nil
}
