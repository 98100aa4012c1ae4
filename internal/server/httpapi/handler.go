// Package httpapi exposes the file store over HTTP: ingestion, retrieval,
// verification, role administration, and audit queries.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/and161185/sealvault/internal/service"
)

// Handler wires services into HTTP handlers.
type Handler struct {
	files service.FileService
	roles service.RoleService
	log   *zap.Logger

	// ready reports backend health for the readiness probe; nil means
	// always ready.
	ready func(ctx context.Context) error

	maxUploadBytes int64
}

// NewHandler constructs a Handler with injected services.
func NewHandler(files service.FileService, roles service.RoleService, log *zap.Logger, ready func(ctx context.Context) error, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 64 << 20
	}
	return &Handler{files: files, roles: roles, log: log, ready: ready, maxUploadBytes: maxUploadBytes}
}

// Routes returns the full router with middleware applied.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(h.log))
	r.Use(RequestLogger(h.log))
	r.Use(Metrics())

	r.Get("/health/live", h.healthLive)
	r.Get("/health/ready", h.healthReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/files", func(r chi.Router) {
			r.Post("/", h.storeFile)
			r.Get("/public", h.listPublic)
			r.Get("/public/{address}", h.listPublicByOwner)
			r.Get("/accessible/{address}", h.listAccessible)
			r.Get("/user/{address}", h.listByUser)

			r.Get("/{fileID}", h.getFile)
			r.Delete("/{fileID}", h.deleteFile)
			r.Get("/{fileID}/download", h.downloadFile)
			r.Post("/{fileID}/verify", h.verifyFile)
			r.Get("/{fileID}/access-logs", h.logsByFile)
		})

		r.Post("/authorities", h.registerAuthority)

		r.Route("/roles", func(r chi.Router) {
			r.Get("/", h.listRoles)
			r.Post("/", h.createRole)
			r.Post("/assign", h.assignRole)
			r.Post("/revoke", h.revokeRole)
		})

		r.Get("/users/{address}/roles", h.userRoles)
		r.Get("/users/{address}/access-logs", h.logsByAccessor)
	})

	return r
}

func (h *Handler) healthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) healthReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
