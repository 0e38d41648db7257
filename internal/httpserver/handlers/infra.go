package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/jobscout/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool     `json:"ok"`
	Backend    string   `json:"backend,omitempty"`
	Source     string   `json:"source,omitempty"`
	LastReload string   `json:"last_reload,omitempty"`
	Enabled    []string `json:"enabled,omitempty"`
	Impact     string   `json:"impact,omitempty"`
	Error      string   `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of each component and an overall status:
// operational, degraded (cache off) or critical (no provider or store down).
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"ranking":   rankingStatus(d),
			"store":     checkStore(r.Context(), d),
			"providers": providersStatus(d),
			"cache":     cacheStatus(d),
		}

		writeJSON(w, d.Logger, http.StatusOK, infraResponse{
			Status:     overallStatus(components),
			Components: components,
		})
	}
}

func overallStatus(components map[string]componentStatus) string {
	if !components["store"].OK || !components["providers"].OK {
		return "critical"
	}
	if !components["cache"].OK {
		return "degraded"
	}
	return "operational"
}

func rankingStatus(d deps.Deps) componentStatus {
	if d.Catalog == nil {
		return componentStatus{OK: true, Source: "builtin", LastReload: "never"}
	}
	lastReload := "never"
	if t := d.Catalog.GetLastReload(); !t.IsZero() {
		lastReload = t.Format(time.RFC3339)
	}
	return componentStatus{OK: true, Source: d.Catalog.Source(), LastReload: lastReload}
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	if d.Saved == nil {
		return componentStatus{Backend: d.StoreBackend, Impact: "saved-jobs-unavailable", Error: "not initialized"}
	}

	ctx, cancel := context.WithTimeout(ctx, readyzTimeout)
	defer cancel()

	if err := d.Saved.Ping(ctx); err != nil {
		return componentStatus{Backend: d.StoreBackend, Impact: "saved-jobs-unavailable", Error: err.Error()}
	}
	return componentStatus{OK: true, Backend: d.StoreBackend}
}

func providersStatus(d deps.Deps) componentStatus {
	var enabled []string
	if d.Searcher != nil {
		enabled = d.Searcher.Providers()
	}
	if len(enabled) == 0 {
		return componentStatus{Impact: "search-unavailable", Error: "no listing provider enabled"}
	}
	return componentStatus{OK: true, Enabled: enabled}
}

func cacheStatus(d deps.Deps) componentStatus {
	if d.Cache == nil {
		return componentStatus{Impact: "every-search-hits-providers"}
	}
	return componentStatus{OK: true, Backend: "redis"}
}
