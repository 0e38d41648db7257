package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Search("manual", "ok")
	m.Search("manual", "ok")
	m.Search("resume", "failure")
	m.Save("created")
	m.RankingReload(errors.New("bad yaml"))
	m.CacheLookup("hit")
	m.ProviderFetch("serpapi", nil, 200*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.searches.WithLabelValues("manual", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues("resume", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.saves.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rankingReloads.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.providerFetch))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Search("manual", "ok")
		m.Save("created")
		m.RankingReload(nil)
		m.CacheLookup("miss")
		m.ProviderFetch("adzuna", errors.New("x"), time.Second)
	})
}
