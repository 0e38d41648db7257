package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jobscout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobscout/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/jobscout/internal/httpserver/mw"
)

func init() { Register(registerJobs, jobsCORS, jobsRateLimit) }

func jobsCORS(d deps.Deps) Middleware {
	return mw.CORS(d.AllowedOrigins)
}

func jobsRateLimit(d deps.Deps) Middleware {
	if d.RateLimitBurst <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateLimitBurst,
		RefillPerIPPerMin: d.RateLimitPerMin,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
	})
}

func registerJobs(r chi.Router, d deps.Deps) {
	r.Route("/api/v1/jobs", func(r chi.Router) {
		r.Get("/catalog", handlers.Catalog(d))
		r.Get("/manual-search", handlers.ManualSearch(d))
		r.Post("/search-by-resume", handlers.ResumeSearch(d))
		r.Post("/save", handlers.SaveJob(d))
		r.Get("/saved/{email}", handlers.SavedJobs(d))
		r.Delete("/saved/{id}", handlers.RemoveSaved(d))
	})
}
