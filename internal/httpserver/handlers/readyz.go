package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/jobscout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
)

const readyzTimeout = 2 * time.Second

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

// Readyz answers 503 until the saved-jobs store is reachable and at least one
// listing provider is enabled.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
		defer cancel()

		if d.Saved == nil {
			writeJSON(w, d.Logger, http.StatusServiceUnavailable, readyzResponse{Reason: "store not initialized"})
			return
		}
		if err := d.Saved.Ping(ctx); err != nil {
			d.Logger.Warn("readiness check failed", logger.Error(err))
			writeJSON(w, d.Logger, http.StatusServiceUnavailable, readyzResponse{Reason: "store unreachable"})
			return
		}
		if d.Searcher == nil || len(d.Searcher.Providers()) == 0 {
			writeJSON(w, d.Logger, http.StatusServiceUnavailable, readyzResponse{Reason: "no listing provider enabled"})
			return
		}

		writeJSON(w, d.Logger, http.StatusOK, readyzResponse{Ready: true})
	}
}
