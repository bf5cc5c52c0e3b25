// Package cycle finds dependency cycles in the package declaration graph.
package cycle

import (
	"sort"
	"strings"

	"github.com/starford/skillgate/internal/models"
)

// Cycle is one elementary cycle, rotated so its smallest slug comes first.
// The closing slug is not repeated.
type Cycle []string

// String renders the cycle closed: "a -> b -> a".
func (c Cycle) String() string {
	if len(c) == 0 {
		return ""
	}
	return strings.Join(append(append([]string{}, c...), c[0]), " -> ")
}

type frame struct {
	slug string
	next int
}

const (
	unvisited = iota
	onStack
	done
)

// Detect walks deps (slug -> declared dependencies) depth-first with an
// explicit stack. Slugs and adjacency are visited in sorted order, so the
// result is deterministic. Each cycle is reported once regardless of where
// the walk entered it. Dependencies naming an unknown slug are reported as
// UnknownDependency and otherwise ignored.
func Detect(deps map[string][]string) ([]Cycle, []models.Violation) {
	slugs := make([]string, 0, len(deps))
	for s := range deps {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)

	var violations []models.Violation
	adj := make(map[string][]string, len(deps))
	for _, s := range slugs {
		seen := map[string]bool{}
		for _, d := range deps[s] {
			if seen[d] {
				continue
			}
			seen[d] = true
			if _, ok := deps[d]; !ok {
				violations = append(violations, models.Violationf(models.KindUnknownDependency, s,
					"depends on unknown package %q", d))
				continue
			}
			adj[s] = append(adj[s], d)
		}
		sort.Strings(adj[s])
	}

	state := make(map[string]int, len(slugs))
	pos := make(map[string]int, len(slugs))
	found := map[string]bool{}
	var cycles []Cycle

	for _, start := range slugs {
		if state[start] != unvisited {
			continue
		}
		stack := []frame{{slug: start}}
		state[start], pos[start] = onStack, 0

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next >= len(adj[top.slug]) {
				state[top.slug] = done
				stack = stack[:len(stack)-1]
				continue
			}
			n := adj[top.slug][top.next]
			top.next++

			switch state[n] {
			case unvisited:
				state[n], pos[n] = onStack, len(stack)
				stack = append(stack, frame{slug: n})
			case onStack:
				c := make(Cycle, 0, len(stack)-pos[n])
				for _, f := range stack[pos[n]:] {
					c = append(c, f.slug)
				}
				c = canonical(c)
				if key := c.String(); !found[key] {
					found[key] = true
					cycles = append(cycles, c)
				}
			}
		}
	}

	sort.Slice(cycles, func(i, j int) bool { return cycles[i].String() < cycles[j].String() })
	for _, c := range cycles {
		violations = append(violations, models.Violationf(models.KindCycle, c[0], "dependency cycle %s", c))
	}
	return cycles, violations
}

// canonical rotates c so the smallest slug is first.
func canonical(c Cycle) Cycle {
	lo := 0
	for i, s := range c {
		if s < c[lo] {
			lo = i
		}
	}
	return append(append(Cycle{}, c[lo:]...), c[:lo]...)
}
