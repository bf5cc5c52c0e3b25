package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/skillgate/internal/audit"
	"github.com/starford/skillgate/internal/models"
)

// Service is the set of read-only operations the API exposes.
type Service interface {
	Audit(ctx context.Context) (*audit.Result, error)
	ValidatePackage(slug string) (models.SkillPackage, []models.Violation, error)
	EstimateTokens(path string) (audit.TokenEstimate, error)
	MapLegacy(identifier string) ([]string, error)
	ListPackages() ([]models.SkillPackage, error)
	ReadDocument(path string) ([]byte, error)
}

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Audit.
	r.Get("/report", h.Report)
	r.Get("/graph", h.Graph)
	r.Get("/hubs", h.Hubs)

	// Packages.
	r.Get("/packages", h.ListPackages)
	r.Get("/packages/{slug}", h.ValidatePackage)
	r.Get("/legacy", h.MapLegacy)

	// Documents.
	r.Get("/documents/*", h.GetDocument)
	r.Get("/tokens/*", h.EstimateTokens)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
