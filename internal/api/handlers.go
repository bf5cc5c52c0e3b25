package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/skillgate/internal/apperr"
	"github.com/starford/skillgate/internal/models"
	"github.com/starford/skillgate/internal/render"
)

// Handler holds API route handlers.
type Handler struct {
	svc Service
}

// NewHandler creates a new Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// docPath extracts the document path from the URL wildcard. Encoded slashes
// (docs%2Fguide.md) are accepted.
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error, attrs ...any) {
	if errors.Is(err, apperr.ErrCorpusUnreadable) {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("corpus unreadable"))
		return
	}
	attrs = append(attrs, slog.String("error", err.Error()))
	slog.Error(op+" failed", attrs...)
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}

// Report handles GET /api/report.
//
//	@Summary		Latest audit report
//	@Tags			audit
//	@Produce		json
//	@Success		200	{object}	report.Report
//	@Security		BearerAuth
//	@Router			/report [get]
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Audit(r.Context())
	if err != nil {
		h.internalError(w, "audit", err)
		return
	}
	writeJSON(w, http.StatusOK, res.Report)
}

// Graph handles GET /api/graph.
//
//	@Summary		Resolved document link graph
//	@Tags			audit
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Audit(r.Context())
	if err != nil {
		h.internalError(w, "graph", err)
		return
	}
	packages := make(map[string]bool, len(res.Packages))
	for _, p := range res.Packages {
		packages[p.Path] = true
	}
	writeJSON(w, http.StatusOK, graphResponse(res.Graph, res.Documents, func(p string) bool {
		return packages[p]
	}))
}

// Hubs handles GET /api/hubs.
//
//	@Summary		Hub coverage matrix
//	@Tags			audit
//	@Produce		json
//	@Success		200	{object}	HubsResponse
//	@Security		BearerAuth
//	@Router			/hubs [get]
func (h *Handler) Hubs(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Audit(r.Context())
	if err != nil {
		h.internalError(w, "hubs", err)
		return
	}
	writeJSON(w, http.StatusOK, HubsResponse{Matrix: res.Hubs.Matrix})
}

// ListPackages handles GET /api/packages.
//
//	@Summary		List skill packages
//	@Tags			packages
//	@Produce		json
//	@Success		200	{object}	PackageListResponse
//	@Security		BearerAuth
//	@Router			/packages [get]
func (h *Handler) ListPackages(w http.ResponseWriter, _ *http.Request) {
	pkgs, err := h.svc.ListPackages()
	if err != nil {
		h.internalError(w, "list packages", err)
		return
	}
	if pkgs == nil {
		pkgs = []models.SkillPackage{}
	}
	writeJSON(w, http.StatusOK, PackageListResponse{Packages: pkgs, Total: len(pkgs)})
}

// ValidatePackage handles GET /api/packages/{slug}.
//
//	@Summary		Validate one skill package
//	@Tags			packages
//	@Produce		json
//	@Param			slug	path		string	true	"Package slug"
//	@Success		200		{object}	render.PackageResult
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/packages/{slug} [get]
func (h *Handler) ValidatePackage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	pkg, vs, err := h.svc.ValidatePackage(slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			h.internalError(w, "validate package", err, slog.String("slug", slug))
		}
		return
	}
	writeJSON(w, http.StatusOK, render.NewPackageResult(pkg, vs))
}

// EstimateTokens handles GET /api/tokens/*.
//
//	@Summary		Per-tier token estimate of a document
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	audit.TokenEstimate
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tokens/{path} [get]
func (h *Handler) EstimateTokens(w http.ResponseWriter, r *http.Request) {
	p := docPath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	est, err := h.svc.EstimateTokens(p)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			h.internalError(w, "estimate tokens", err, slog.String("path", p))
		}
		return
	}
	writeJSON(w, http.StatusOK, est)
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Raw Markdown of a corpus document
//	@Tags			documents
//	@Produce		plain
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{string}	string
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	p := docPath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	data, err := h.svc.ReadDocument(p)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			h.internalError(w, "read document", err, slog.String("path", p))
		}
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// MapLegacy handles GET /api/legacy.
//
//	@Summary		Map a legacy directive to package slugs
//	@Tags			packages
//	@Produce		json
//	@Param			id	query		string	true	"Legacy identifier, e.g. product:api"
//	@Success		200	{object}	LegacyResponse
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/legacy [get]
func (h *Handler) MapLegacy(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'id' is required"))
		return
	}
	slugs, err := h.svc.MapLegacy(id)
	if err != nil {
		if errors.Is(err, apperr.ErrNoMapping) {
			writeJSON(w, http.StatusNotFound, errorBody("no mapping"))
		} else {
			h.internalError(w, "map legacy", err, slog.String("id", id))
		}
		return
	}
	writeJSON(w, http.StatusOK, LegacyResponse{Identifier: id, Packages: slugs})
}
