// Package search orchestrates a query against the listing providers.
package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/MrSnakeDoc/jobscout/internal/metrics"
	"github.com/MrSnakeDoc/jobscout/internal/provider"
	"github.com/MrSnakeDoc/jobscout/internal/resume"
)

// fallbackLimit caps the unfiltered results returned when no posting matches
// the requested platforms.
const fallbackLimit = 20

// defaultFetchTimeout bounds a provider round shared by collapsed searches.
const defaultFetchTimeout = 60 * time.Second

// Cache stores unranked postings per query fingerprint.
type Cache interface {
	GetCachedSearch(ctx context.Context, fingerprint string) ([]domain.Posting, bool, error)
	CacheSearch(ctx context.Context, fingerprint string, postings []domain.Posting, ttl time.Duration) error
	InvalidateSearch(ctx context.Context, fingerprint string) error
}

// CatalogSource exposes the active search catalog.
type CatalogSource interface {
	Catalog() *domain.Catalog
}

// Result is a successful search. Postings are not ranked.
type Result struct {
	Postings []domain.Posting
	Terms    string   // provider search string
	Cached   bool     // served from the cache
	Failed   []string // providers that failed while others answered
}

// Empty reports a search that completed with zero postings.
func (r Result) Empty() bool {
	return len(r.Postings) == 0
}

// FailureError means the search could not complete.
type FailureError struct {
	Reason string
	Causes map[string]error // per provider
}

func (e *FailureError) Error() string {
	if len(e.Causes) == 0 {
		return "search failed: " + e.Reason
	}
	names := make([]string, 0, len(e.Causes))
	for name, err := range e.Causes {
		names = append(names, name+": "+err.Error())
	}
	return fmt.Sprintf("search failed: %s (%s)", e.Reason, strings.Join(names, "; "))
}

func (e *FailureError) Unwrap() []error {
	errs := make([]error, 0, len(e.Causes))
	for _, err := range e.Causes {
		errs = append(errs, err)
	}
	return errs
}

// Options configures an Aggregator.
type Options struct {
	Providers []provider.Provider
	Extractor resume.Extractor
	Catalog   CatalogSource
	Cache     Cache         // optional
	CacheTTL  time.Duration // 0 disables caching
	Metrics   *metrics.Metrics
	// FetchTimeout bounds one provider round. It does not follow any single
	// caller's context because identical searches share the round.
	FetchTimeout time.Duration
}

// Aggregator fans a query out to every enabled provider.
type Aggregator struct {
	providers []provider.Provider
	extractor resume.Extractor
	catalog   CatalogSource
	cache     Cache
	cacheTTL  time.Duration
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    logger.Logger
	flight    singleflight.Group
}

// New creates an Aggregator. Providers without credentials are dropped.
func New(opts Options, log logger.Logger) *Aggregator {
	log = log.Named("search")

	enabled := make([]provider.Provider, 0, len(opts.Providers))
	for _, p := range opts.Providers {
		if !p.Enabled() {
			log.Warn("listing provider disabled, credentials missing", logger.String("provider", p.Name()))
			continue
		}
		enabled = append(enabled, p)
	}

	extractor := opts.Extractor
	if extractor == nil {
		extractor = resume.NewKeywordExtractor(func() []string {
			if opts.Catalog == nil {
				return domain.DefaultCatalog().Roles
			}
			return opts.Catalog.Catalog().Roles
		}, nil)
	}

	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	return &Aggregator{
		providers: enabled,
		extractor: extractor,
		catalog:   opts.Catalog,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		timeout:   timeout,
		metrics:   opts.Metrics,
		logger:    log,
	}
}

// Providers returns the names of the enabled providers.
func (a *Aggregator) Providers() []string {
	names := make([]string, len(a.providers))
	for i, p := range a.providers {
		names[i] = p.Name()
	}
	return names
}

// Search runs q. Validation problems are domain.ErrValidation and happen
// before any network call; a search that cannot complete is a *FailureError.
func (a *Aggregator) Search(ctx context.Context, q domain.SearchQuery) (Result, error) {
	q = q.Normalize()
	mode := string(q.Mode)

	res, err := a.search(ctx, q)
	switch {
	case errors.Is(err, domain.ErrValidation):
		a.metrics.Search(mode, "invalid")
	case err != nil:
		a.metrics.Search(mode, "failure")
	case res.Empty():
		a.metrics.Search(mode, "empty")
	default:
		a.metrics.Search(mode, "ok")
	}
	return res, err
}

func (a *Aggregator) search(ctx context.Context, q domain.SearchQuery) (Result, error) {
	if err := q.Validate(); err != nil {
		return Result{}, err
	}

	var (
		pq        provider.Query
		platforms []string
	)

	switch q.Mode {
	case domain.ModeManual:
		m := q.Manual
		if len(m.Platforms) == 0 {
			// No platform selected: nothing to ask for
			return Result{Postings: []domain.Posting{}}, nil
		}
		pq = provider.Query{
			Terms:     joinTerms(m.ResolvedRole(), m.Experience),
			Location:  m.Location,
			TimeRange: m.TimeRange,
		}
		platforms = m.Platforms
		a.logger.Debug("manual search",
			logger.String("terms", pq.Terms),
			logger.Bool("catalog_role", a.activeCatalog().HasRole(m.ResolvedRole())),
			logger.Strings("platforms", platforms))

	case domain.ModeResume:
		text, err := resume.DocumentText(q.Resume)
		if err != nil {
			return Result{}, err
		}
		profile, err := a.extractor.Extract(ctx, text)
		if err != nil {
			return Result{}, &FailureError{Reason: "resume extraction failed: " + err.Error()}
		}
		pq = provider.Query{
			Terms:     profile.Terms(),
			Location:  q.Resume.Location,
			TimeRange: q.Resume.TimeRange,
		}
	}

	postings, cached, failed, err := a.fetch(ctx, pq)
	if err != nil {
		return Result{}, err
	}

	if platforms != nil {
		postings = FilterPlatforms(postings, platforms, a.activeCatalog())
	}

	return Result{
		Postings: postings,
		Terms:    pq.Terms,
		Cached:   cached,
		Failed:   failed,
	}, nil
}

type fetched struct {
	postings []domain.Posting
	cached   bool
	failed   []string
}

// fetch collapses identical concurrent searches into one provider round.
// The round outlives a caller that gives up, so the others still get its
// result and it is still cached.
func (a *Aggregator) fetch(ctx context.Context, pq provider.Query) ([]domain.Posting, bool, []string, error) {
	fp := Fingerprint(pq)

	ch := a.flight.DoChan(fp, func() (interface{}, error) {
		roundCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		return a.fetchOnce(roundCtx, fp, pq)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, false, nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, false, nil, res.Err
	}

	f := res.Val.(*fetched)
	// Callers own their slice
	postings := make([]domain.Posting, len(f.postings))
	copy(postings, f.postings)
	return postings, f.cached, f.failed, nil
}

func (a *Aggregator) fetchOnce(ctx context.Context, fp string, pq provider.Query) (*fetched, error) {
	if postings, ok := a.cached(ctx, fp); ok {
		return &fetched{postings: postings, cached: true}, nil
	}

	if len(a.providers) == 0 {
		return nil, &FailureError{Reason: "no listing provider configured"}
	}

	batches := make([][]domain.Posting, len(a.providers))
	errs := make([]error, len(a.providers))

	var g errgroup.Group
	for i, p := range a.providers {
		g.Go(func() error {
			start := time.Now()
			postings, err := p.Fetch(ctx, pq)
			a.metrics.ProviderFetch(p.Name(), err, time.Since(start))

			batches[i], errs[i] = postings, err
			return nil
		})
	}
	_ = g.Wait()

	var (
		all    []domain.Posting
		failed []string
		causes = make(map[string]error)
	)
	for i, p := range a.providers {
		if errs[i] != nil {
			failed = append(failed, p.Name())
			causes[p.Name()] = errs[i]
			continue
		}
		all = append(all, batches[i]...)
	}

	if len(failed) == len(a.providers) {
		return nil, &FailureError{Reason: "all listing providers failed", Causes: causes}
	}
	if len(failed) > 0 {
		a.logger.Warn("partial search results",
			logger.Strings("failed_providers", failed),
			logger.String("terms", pq.Terms))
	}

	all = domain.DedupPostings(all)
	if len(failed) == 0 && len(all) > 0 {
		a.store(ctx, fp, all)
	}

	return &fetched{postings: all, failed: failed}, nil
}

func (a *Aggregator) cached(ctx context.Context, fp string) ([]domain.Posting, bool) {
	if a.cache == nil || a.cacheTTL <= 0 {
		return nil, false
	}
	postings, ok, err := a.cache.GetCachedSearch(ctx, fp)
	if err != nil {
		a.metrics.CacheLookup("error")
		a.logger.Warn("search cache lookup failed", logger.Error(err))
		// An unreadable entry would fail every lookup until it expires
		if err := a.cache.InvalidateSearch(ctx, fp); err != nil {
			a.logger.Debug("search cache invalidation failed", logger.Error(err))
		}
		return nil, false
	}
	if !ok {
		a.metrics.CacheLookup("miss")
		return nil, false
	}
	a.metrics.CacheLookup("hit")
	return postings, true
}

func (a *Aggregator) store(ctx context.Context, fp string, postings []domain.Posting) {
	if a.cache == nil || a.cacheTTL <= 0 {
		return
	}
	if err := a.cache.CacheSearch(ctx, fp, postings, a.cacheTTL); err != nil {
		a.logger.Warn("search cache write failed", logger.Error(err))
	}
}

func (a *Aggregator) activeCatalog() *domain.Catalog {
	if a.catalog == nil {
		return domain.DefaultCatalog()
	}
	return a.catalog.Catalog()
}

// Fingerprint identifies a provider query for caching and request collapsing.
func Fingerprint(pq provider.Query) string {
	h := sha256.New()
	for _, part := range []string{pq.Terms, pq.Location, pq.TimeRange} {
		h.Write([]byte(strings.ToLower(strings.TrimSpace(part))))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// FilterPlatforms keeps postings whose platform contains one of the requested
// names. Asking for every known platform disables the filter; when nothing
// matches, the first fallbackLimit postings are returned unfiltered.
func FilterPlatforms(postings []domain.Posting, requested []string, catalog *domain.Catalog) []domain.Posting {
	if len(requested) == 0 {
		return postings
	}
	if catalog != nil && (catalog.CoversAllPlatforms(requested) || len(requested) >= len(catalog.Platforms)) {
		return postings
	}

	wanted := make([]string, 0, len(requested))
	for _, r := range requested {
		if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
			wanted = append(wanted, r)
		}
	}

	filtered := make([]domain.Posting, 0, len(postings))
	for _, p := range postings {
		platform := strings.ToLower(p.Platform)
		for _, w := range wanted {
			if strings.Contains(platform, w) {
				filtered = append(filtered, p)
				break
			}
		}
	}

	if len(filtered) == 0 && len(postings) > 0 {
		return postings[:min(fallbackLimit, len(postings))]
	}
	return filtered
}

func joinTerms(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
