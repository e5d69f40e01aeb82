package routes

import (
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jmylchreest/brightnessd/internal/http/mw"
)

// NewRouter builds the Chi router serving the API. Rate limiting runs at
// Chi level so it also covers requests Huma rejects.
func NewRouter(logger *slog.Logger, version string, rateLimit int, h *Handlers) (chi.Router, huma.API) {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(mw.RequestLogging(logger))
	router.Use(mw.RateLimitByIP(rateLimit))

	api := humachi.New(router, NewHumaConfig(version, ""))
	Register(api, h)
	return router, api
}
