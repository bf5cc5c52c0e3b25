package api

import (
	"github.com/starford/skillgate/internal/graph"
	"github.com/starford/skillgate/internal/models"
	"github.com/starford/skillgate/internal/policy"
)

// GraphNode is a document in the link graph.
type GraphNode struct {
	ID      string `json:"id" example:"docs/standards/UNIFIED_STANDARDS.md" validate:"required"`
	Title   string `json:"title,omitempty" example:"Unified Standards"`
	Package bool   `json:"package"`
}

// GraphLink is a resolved edge between two documents.
type GraphLink struct {
	Source string          `json:"source" example:"README.md" validate:"required"`
	Target string          `json:"target" example:"docs/guide.md" validate:"required"`
	Kind   models.EdgeKind `json:"kind" example:"prose-link" validate:"required"`
}

// GraphResponse wraps the link graph.
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes" validate:"required"`
	Links []GraphLink `json:"links" validate:"required"`
}

// HubsResponse wraps the hub coverage matrix.
type HubsResponse struct {
	Matrix []policy.MatrixRow `json:"matrix" validate:"required"`
}

// LegacyResponse is the result of a legacy directive lookup.
type LegacyResponse struct {
	Identifier string   `json:"identifier" example:"product:api" validate:"required"`
	Packages   []string `json:"packages" validate:"required"`
}

// PackageListResponse wraps the package list.
type PackageListResponse struct {
	Packages []models.SkillPackage `json:"packages" validate:"required"`
	Total    int                   `json:"total" example:"12" validate:"required"`
}

func graphResponse(g *graph.Graph, docs []*models.Document, isPackage func(string) bool) GraphResponse {
	titles := make(map[string]string, len(docs))
	for _, d := range docs {
		titles[d.Path] = documentTitle(d)
	}
	resp := GraphResponse{Nodes: []GraphNode{}, Links: []GraphLink{}}
	for _, id := range g.Nodes() {
		resp.Nodes = append(resp.Nodes, GraphNode{ID: id, Title: titles[id], Package: isPackage(id)})
	}
	for _, e := range g.Edges() {
		if e.Status != graph.StatusResolved {
			continue
		}
		resp.Links = append(resp.Links, GraphLink{Source: e.Source, Target: e.Resolved, Kind: e.Kind})
	}
	return resp
}

// documentTitle is the header name, else the first top-level heading.
func documentTitle(d *models.Document) string {
	if d.Header.Name != "" {
		return d.Header.Name
	}
	for _, s := range d.Sections {
		if s.Level == 1 {
			return s.Heading
		}
	}
	return ""
}
