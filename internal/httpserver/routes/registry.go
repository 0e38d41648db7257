package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jobscout/internal/httpserver/deps"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
	// MiddlewareFactory builds a middleware once the deps are known.
	MiddlewareFactory func(d deps.Deps) Middleware
)

type entry struct {
	reg Registrar
	mws []MiddlewareFactory
}

var registry []entry

// Register a registrar with optional per-route middlewares.
func Register(reg Registrar, mws ...MiddlewareFactory) {
	registry = append(registry, entry{reg: reg, mws: mws})
}

// RegisterAll mounts every registrar on r. Called once from server.New().
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		if len(e.mws) == 0 {
			e.reg(r, d)
			continue
		}
		built := make([]Middleware, len(e.mws))
		for i, f := range e.mws {
			built[i] = f(d)
		}
		e.reg(r.With(built...), d)
	}
}
