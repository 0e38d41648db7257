package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/jobscout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
)

// Reload triggers a manual reload of the ranking table.
// With ?flush_cache=true the search cache is dropped first.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flushed := -1
		if flush, _ := strconv.ParseBool(r.URL.Query().Get("flush_cache")); flush && d.Cache != nil {
			n, err := d.Cache.FlushCache(r.Context())
			if err != nil {
				d.Logger.Error("failed to flush search cache", logger.Error(err))
				http.Error(w, "failed to flush search cache", http.StatusInternalServerError)
				return
			}
			flushed = n
			d.Logger.Info("search cache flushed via endpoint",
				logger.Int("entries", n),
				logger.String("remote_ip", r.RemoteAddr))
		}

		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual ranking reload triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
		default:
			d.Logger.Warn("ranking reload already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusTooManyRequests)
			if _, err := w.Write([]byte("⏳ Reload already in progress, please wait\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
			return
		}

		msg := "✅ Reload triggered successfully\n"
		if flushed >= 0 {
			msg = fmt.Sprintf("✅ Reload triggered successfully, %d cached searches flushed\n", flushed)
		}
		w.WriteHeader(http.StatusAccepted)
		if _, err := w.Write([]byte(msg)); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}
