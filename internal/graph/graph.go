// Package graph resolves document edges and builds the directed link graph.
package graph

import (
	"fmt"
	"sort"

	"github.com/starford/skillgate/internal/models"
)

// ResolvedEdge is an edge together with its resolution outcome.
type ResolvedEdge struct {
	models.Edge
	Resolved string `json:"resolved,omitempty"`
	Status   Status `json:"status"`
}

// Graph is the derived document graph. Nodes are document paths; adjacency
// holds only edges whose target resolved to a document.
type Graph struct {
	nodes    []string
	edges    []ResolvedEdge
	children map[string][]string // source -> targets, both kinds
	declared map[string][]string // target -> sources, declared edges only
}

// Nodes returns every document path in sorted order.
func (g *Graph) Nodes() []string { return g.nodes }

// Edges returns every edge with its resolution, in document then authored
// order.
func (g *Graph) Edges() []ResolvedEdge { return g.edges }

// Children returns the resolved targets of id, sorted.
func (g *Graph) Children(id string) []string { return g.children[id] }

// DeclaredParents returns the documents holding a resolved declared edge to
// id, sorted.
func (g *Graph) DeclaredParents(id string) []string { return g.declared[id] }

// EdgeCount returns the number of distinct resolved adjacencies.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, c := range g.children {
		n += len(c)
	}
	return n
}

// Build resolves every edge of docs and returns the graph together with one
// BrokenLink violation per unresolved (document, target) pair. Declared
// edges resolve only to documents; prose edges also accept external URLs,
// same-document anchors and existing non-document files. A document only
// asserts its own outbound edges: an "a -> b" entry whose source resolves to
// another document adds no adjacency and is reported as MalformedDeclaration.
func Build(docs []*models.Document, files FileChecker) (*Graph, []models.Violation) {
	paths := make([]string, 0, len(docs))
	for _, d := range docs {
		paths = append(paths, d.Path)
	}
	sort.Strings(paths)
	r := NewResolver(paths, files)

	g := &Graph{
		nodes:    paths,
		children: make(map[string][]string),
		declared: make(map[string][]string),
	}

	var violations []models.Violation
	reported := map[[2]string]bool{}
	broken := func(doc, detail string) {
		key := [2]string{doc, detail}
		if reported[key] {
			return
		}
		reported[key] = true
		violations = append(violations, models.NewViolation(models.KindBrokenLink, doc, detail))
	}

	for _, d := range docs {
		for _, e := range d.Edges {
			re := ResolvedEdge{Edge: e}

			if e.SourceAuthored != "" {
				src, st := r.Resolve(d.Path, e.SourceAuthored)
				if st != StatusResolved {
					re.Status = StatusBroken
					g.edges = append(g.edges, re)
					broken(d.Path, fmt.Sprintf("declared source %q does not resolve to a document", e.SourceAuthored))
					continue
				}
				re.Source = src
				if src != d.Path {
					re.Status = StatusForeign
					g.edges = append(g.edges, re)
					violations = append(violations, models.Violationf(models.KindMalformedDeclaration, d.Path,
						"declared source %q is not the declaring document", e.SourceAuthored))
					continue
				}
			}

			re.Resolved, re.Status = r.Resolve(d.Path, e.Target)
			if e.Kind == models.EdgeDeclared && re.Status != StatusResolved {
				re.Resolved, re.Status = "", StatusBroken
			}
			g.edges = append(g.edges, re)

			switch re.Status {
			case StatusBroken:
				broken(d.Path, fmt.Sprintf("target %q does not resolve", e.Target))
			case StatusResolved:
				g.children[re.Source] = appendUnique(g.children[re.Source], re.Resolved)
				if e.Kind == models.EdgeDeclared {
					g.declared[re.Resolved] = appendUnique(g.declared[re.Resolved], re.Source)
				}
			}
		}
	}

	for _, m := range []map[string][]string{g.children, g.declared} {
		for k := range m {
			sort.Strings(m[k])
		}
	}
	return g, violations
}

func appendUnique(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}
