// Package metrics holds the Prometheus collectors of the server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors. A nil *Metrics records nothing.
type Metrics struct {
	searches       *prometheus.CounterVec
	providerFetch  *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	saves          *prometheus.CounterVec
	rankingReloads *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		searches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscout_searches_total",
			Help: "Searches by mode and outcome (ok, empty, invalid, failure).",
		}, []string{"mode", "outcome"}),
		providerFetch: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobscout_provider_fetch_seconds",
			Help:    "Duration of listing provider fetches.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		}, []string{"provider", "result"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscout_search_cache_total",
			Help: "Search cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		saves: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscout_saves_total",
			Help: "Save requests by outcome (created, already_exists, error).",
		}, []string{"outcome"}),
		rankingReloads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscout_ranking_reloads_total",
			Help: "Ranking table reloads by result (ok, error).",
		}, []string{"result"}),
	}
}

// NewRegistry returns a registry carrying the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (m *Metrics) Search(mode, outcome string) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) ProviderFetch(provider string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.providerFetch.WithLabelValues(provider, result).Observe(elapsed.Seconds())
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) Save(outcome string) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RankingReload(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.rankingReloads.WithLabelValues(result).Inc()
}
