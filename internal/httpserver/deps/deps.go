package deps

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrSnakeDoc/jobscout/internal/catalog"
	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/MrSnakeDoc/jobscout/internal/metrics"
	"github.com/MrSnakeDoc/jobscout/internal/search"
	"github.com/MrSnakeDoc/jobscout/internal/store"
)

// Searcher runs searches against the listing providers.
type Searcher interface {
	Search(ctx context.Context, q domain.SearchQuery) (search.Result, error)
	Providers() []string
}

// CacheFlusher drops every cached search.
type CacheFlusher interface {
	FlushCache(ctx context.Context) (int, error)
}

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	TimeNow         func() time.Time    // for testing, defaults to time.Now
	AllowedHosts    []string            // Host headers allowed on operator endpoints
	AllowedCIDRS    []string            // IPs allowed on readyz/infra/reload/metrics
	AllowedOrigins  []string            // CORS origins for the jobs API
	TrustProxy      bool                // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RateLimitBurst  int                 // per-IP burst on the jobs API
	RateLimitPerMin int                 // per-IP refill on the jobs API
	MaxUploadBytes  int64               // resume upload limit
	StoreBackend    string              // "redis" or "postgres", reported by /infra
	Searcher        Searcher            // search aggregator
	Saved           store.SavedJobs     // saved-jobs backend
	Catalog         *catalog.Memory     // active ranking table and search catalog
	Cache           CacheFlusher        // search cache, nil when disabled
	Metrics         *metrics.Metrics    // nil records nothing
	Gatherer        prometheus.Gatherer // served on /metrics
	ReloadTrigger   chan struct{}       // Channel to trigger a manual ranking reload
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
