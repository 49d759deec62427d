// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services without embedding business logic so transport concerns remain
// isolated.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lethe/internal/entity"
	"lethe/internal/platform/metrics"
	"lethe/internal/platform/middleware"
)

// Handler bundles the domain services behind the HTTP surface.
type Handler struct {
	logger  *slog.Logger
	consent ConsentService
	engine  AnonymizationService
	sweep   SweepService
	loader  entity.Loader
	metrics *metrics.Metrics
}

func NewHandler(
	consent ConsentService,
	engine AnonymizationService,
	sweep SweepService,
	loader entity.Loader,
	logger *slog.Logger,
	m *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		consent: consent,
		engine:  engine,
		sweep:   sweep,
		loader:  loader,
		metrics: m,
	}
}

// NewRouter wires all endpoints. API routes sit behind JWT auth; health and
// metrics stay open for probes and scrapers.
func NewRouter(h *Handler, validator middleware.JWTValidator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Latency(h.metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(validator, h.logger))

		r.Post("/consents", h.handleGrantConsent)
		r.Post("/consents/revoke", h.handleRevokeConsent)
		r.Post("/consents/renew", h.handleRenewConsent)
		r.Get("/consents", h.handleListConsents)
		r.Get("/consents/check", h.handleCheckConsent)

		r.Post("/entities/{type}/{id}/anonymize", h.handleAnonymizeEntity)
		r.Post("/entities/{type}/{id}/deanonymize", h.handleDeanonymizeEntity)
		r.Get("/entities/{type}/{id}/fields", h.handleAnonymizablePaths)

		r.Post("/sweep", h.handleSweep)
	})

	return r
}
