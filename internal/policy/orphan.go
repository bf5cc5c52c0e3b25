package policy

import (
	"path"

	"github.com/starford/skillgate/internal/graph"
	"github.com/starford/skillgate/internal/models"
)

// ConfigSubject is the violation subject for problems in configuration
// rather than in a document.
const ConfigSubject = "config"

// Reachability is the outcome of FindOrphans.
type Reachability struct {
	Roots      []string
	Reached    int
	Violations []models.Violation
}

// FindOrphans walks g breadth-first from roots plus every hub that exists
// and reports each unreached document once. Configured roots that are not
// documents are reported as broken configuration links.
func FindOrphans(g *graph.Graph, roots []string, rules []HubRule, exempt []string) Reachability {
	nodes := toSet(g.Nodes())
	skip := toSet(exempt)

	var out Reachability
	for _, r := range roots {
		r = path.Clean(r)
		if !nodes[r] {
			out.Violations = append(out.Violations, models.Violationf(models.KindBrokenLink, ConfigSubject,
				"configured root %q is not a document", r))
			continue
		}
		out.Roots = appendUnique(out.Roots, r)
	}
	for _, h := range HubPaths(rules) {
		if nodes[h] {
			out.Roots = appendUnique(out.Roots, h)
		}
	}

	seen := make(map[string]bool, len(nodes))
	queue := make([]string, 0, len(out.Roots))
	for _, r := range out.Roots {
		if !seen[r] {
			seen[r] = true
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.Children(cur) {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	out.Reached = len(seen)

	for _, doc := range g.Nodes() {
		if seen[doc] || skip[doc] {
			continue
		}
		out.Violations = append(out.Violations, models.NewViolation(models.KindOrphan, doc,
			"not reachable from any root or hub"))
	}
	return out
}
