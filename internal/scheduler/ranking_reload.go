package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"github.com/MrSnakeDoc/jobscout/internal/catalog"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/MrSnakeDoc/jobscout/internal/metrics"
	"github.com/MrSnakeDoc/jobscout/internal/sources/rankingfile"
)

// fileSettle groups the burst of events an editor produces on save
const fileSettle = 300 * time.Millisecond

// RankingReloaderOptions configures a RankingReloader.
type RankingReloaderOptions struct {
	File          string        // ranking YAML, empty = built-in table only
	Schedule      string        // cron spec, empty disables scheduled reloads
	Watch         bool          // reload when the file changes
	ManualTrigger chan struct{} // fed by POST /reload
}

// RankingReloader keeps the active ranking table in sync with its file.
// Reloads come from a cron schedule, file change events and manual triggers.
type RankingReloader struct {
	opts    RankingReloaderOptions
	loader  *rankingfile.Loader
	mapper  *rankingfile.Mapper
	catalog *catalog.Memory
	metrics *metrics.Metrics
	logger  logger.Logger

	cron     *cron.Cron
	watcher  *fsnotify.Watcher
	fileCh   chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	reloadMu sync.Mutex
}

// NewRankingReloader creates a new ranking reloader
func NewRankingReloader(opts RankingReloaderOptions, cat *catalog.Memory, m *metrics.Metrics, log logger.Logger) *RankingReloader {
	log = log.Named("ranking")

	rr := &RankingReloader{
		opts:    opts,
		mapper:  rankingfile.NewMapper(),
		catalog: cat,
		metrics: m,
		logger:  log,
		cron:    cron.New(cron.WithLogger(cronLogger{log}), cron.WithChain(cron.SkipIfStillRunning(cronLogger{log}))),
		fileCh:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
	if opts.File != "" {
		rr.loader = rankingfile.NewLoader(opts.File)
	}
	return rr
}

// Start loads the table once, then listens for reload triggers
func (rr *RankingReloader) Start(ctx context.Context) error {
	if err := rr.Reload(ctx); err != nil {
		return fmt.Errorf("initial ranking load failed: %w", err)
	}

	if rr.loader != nil {
		if rr.opts.Schedule != "" {
			if _, err := rr.cron.AddFunc(rr.opts.Schedule, func() { rr.reloadAndLog(ctx, "schedule") }); err != nil {
				return fmt.Errorf("invalid reload schedule %q: %w", rr.opts.Schedule, err)
			}
			rr.cron.Start()
		}

		if rr.opts.Watch {
			if err := rr.watch(); err != nil {
				// Scheduled and manual reloads still work
				rr.logger.Warn("ranking file watch disabled", logger.Error(err))
			}
		}
	}

	go rr.loop(ctx)
	return nil
}

func (rr *RankingReloader) loop(ctx context.Context) {
	for {
		select {
		case <-rr.opts.ManualTrigger:
			rr.logger.Info("manual reload triggered")
			rr.reloadAndLog(ctx, "manual")
		case <-rr.fileCh:
			rr.reloadAndLog(ctx, "file change")
		case <-rr.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// watch follows the directory of the file so rename-on-save editors are seen
func (rr *RankingReloader) watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	target := filepath.Clean(rr.opts.File)
	if err := w.Add(filepath.Dir(target)); err != nil {
		_ = w.Close()
		return err
	}
	rr.watcher = w

	go func() {
		var settle *time.Timer
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				if settle != nil {
					settle.Stop()
				}
				settle = time.AfterFunc(fileSettle, func() {
					select {
					case rr.fileCh <- struct{}{}:
					default:
					}
				})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				rr.logger.Warn("ranking file watcher error", logger.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (rr *RankingReloader) Stop() {
	rr.stopOnce.Do(func() {
		close(rr.stopCh)
		<-rr.cron.Stop().Done()
		if rr.watcher != nil {
			_ = rr.watcher.Close()
		}
	})
}

func (rr *RankingReloader) reloadAndLog(ctx context.Context, reason string) {
	if err := rr.Reload(ctx); err != nil {
		rr.logger.Error("failed to reload ranking table, keeping previous",
			logger.String("reason", reason),
			logger.Error(err))
	}
}

// Reload loads the ranking file and swaps the active table.
// On error the active table is left untouched.
func (rr *RankingReloader) Reload(_ context.Context) error {
	rr.reloadMu.Lock()
	defer rr.reloadMu.Unlock()

	if rr.loader == nil {
		rr.logger.Debug("no ranking file configured, using built-in table")
		return nil
	}

	err := rr.reload()
	rr.metrics.RankingReload(err)
	return err
}

func (rr *RankingReloader) reload() error {
	file, err := rr.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load ranking file: %w", err)
	}

	table, err := rr.mapper.MapTable(file)
	if err != nil {
		return fmt.Errorf("failed to map ranking table: %w", err)
	}
	cat := rr.mapper.MapCatalog(file)

	rr.catalog.Update(table, cat, rr.loader.Path())

	rr.logger.Info("ranking table loaded",
		logger.String("file", rr.loader.Path()),
		logger.Int("recency_rules", len(table.Recency)),
		logger.Int("prestige_companies", len(table.PrestigeCompanies)),
		logger.Int("platforms", len(cat.Platforms)))

	return nil
}

// cronLogger adapts the logger to cron.Logger
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debugf("cron: %s %v", msg, keysAndValues)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Errorf("cron: %s: %v %v", msg, err, keysAndValues)
}
