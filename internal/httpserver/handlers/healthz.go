package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/jobscout/internal/httpserver/deps"
)

type buildInfo struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

type healthzResponse struct {
	Status        string    `json:"status"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	StoreBackend  string    `json:"store_backend"`
	Providers     []string  `json:"providers"`
	RankingSource string    `json:"ranking_source,omitempty"`
	Build         buildInfo `json:"build"`
}

// Healthz reports liveness and what the process was started with. It reads
// only in-process state, so a down backend never fails it; /readyz covers that.
func Healthz(d deps.Deps) http.HandlerFunc {
	build := buildInfo{
		Version:   d.Version,
		Commit:    d.Commit,
		BuildDate: d.BuildDate,
		GoVersion: d.GoVersion,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthzResponse{
			Status:        "ok",
			UptimeSeconds: d.Now().Sub(d.StartTime).Seconds(),
			StoreBackend:  d.StoreBackend,
			Providers:     []string{},
			Build:         build,
		}
		if d.Searcher != nil {
			if names := d.Searcher.Providers(); names != nil {
				resp.Providers = names
			}
		}
		if d.Catalog != nil {
			resp.RankingSource = d.Catalog.Source()
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, d.Logger, http.StatusOK, resp)
	}
}
