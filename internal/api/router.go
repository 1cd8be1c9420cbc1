package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/hub"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/vulnscan"
)

// RouterOptions carries the optional pieces of the router.
type RouterOptions struct {
	// Metrics, when set, is served at /metrics.
	Metrics http.Handler
	// ScanObserver is notified of URL scans.
	ScanObserver ScanObserver
	// CommandRate and CommandBurst limit command requests per client.
	CommandRate  float64
	CommandBurst int
}

// NewRouter creates the Chi router with all routes and middleware.
func NewRouter(
	manager *hub.Manager,
	scanner *vulnscan.Scanner,
	opts RouterOptions,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	healthH := NewHealthHandler(manager)
	sessionH := NewSessionHandler(manager, logger)
	scanH := NewScanHandler(scanner, opts.ScanObserver, logger)

	r.Get("/health", healthH.Health)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	// One limiter table covers every mutating endpoint.
	limit := RateLimit(opts.CommandRate, opts.CommandBurst)

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", healthH.Catalog)

		r.Route("/sessions", func(r chi.Router) {
			r.With(limit).Post("/", sessionH.Create)
			r.Get("/{id}", sessionH.Get)
			r.Delete("/{id}", sessionH.Delete)
			r.Get("/{id}/events", sessionH.Events)
			r.With(limit).Post("/{id}/{command}", sessionH.Command)
		})

		r.With(limit).Post("/scans", scanH.Scan)
	})

	return r
}
