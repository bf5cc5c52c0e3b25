// Package policy applies the corpus linking policy to a resolved graph: hub
// coverage and reachability.
package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/starford/skillgate/internal/graph"
	"github.com/starford/skillgate/internal/models"
)

// HubRule requires every document matching Pattern to be the target of a
// declared edge from one of Hubs.
type HubRule struct {
	Pattern string   `yaml:"pattern" json:"pattern"`
	Hubs    []string `yaml:"hubs" json:"hubs"`
}

// MatrixRow records, for one subject document, which hubs of its rules
// declare a link to it.
type MatrixRow struct {
	Document string   `json:"document"`
	Rules    []string `json:"rules"`
	Expected []string `json:"expected"`
	Linked   []string `json:"linked"`
}

// Covered reports whether at least one expected hub links the document.
func (r MatrixRow) Covered() bool { return len(r.Linked) > 0 }

// HubReport is the outcome of CheckHubs.
type HubReport struct {
	Matrix     []MatrixRow
	Violations []models.Violation
}

// CheckHubs evaluates rules against the declared edges of g. A subject is a
// document matching a rule's pattern that is neither one of that rule's hubs
// nor listed in exempt. Prose links never satisfy a rule. Each document
// yields at most one HubViolation however many of its rules fail.
func CheckHubs(g *graph.Graph, rules []HubRule, exempt []string) HubReport {
	skip := toSet(exempt)

	var out HubReport
	for _, doc := range g.Nodes() {
		if skip[doc] {
			continue
		}
		parents := toSet(g.DeclaredParents(doc))

		row := MatrixRow{Document: doc}
		var missing []string
		for _, rule := range rules {
			if ok, _ := doublestar.Match(rule.Pattern, doc); !ok {
				continue
			}
			if contains(rule.Hubs, doc) {
				continue
			}
			row.Rules = append(row.Rules, rule.Pattern)

			satisfied := false
			for _, h := range rule.Hubs {
				row.Expected = appendUnique(row.Expected, h)
				if parents[h] {
					row.Linked = appendUnique(row.Linked, h)
					satisfied = true
				}
			}
			if !satisfied {
				for _, h := range rule.Hubs {
					missing = appendUnique(missing, h)
				}
			}
		}
		if len(row.Rules) == 0 {
			continue
		}
		sort.Strings(row.Expected)
		sort.Strings(row.Linked)
		out.Matrix = append(out.Matrix, row)

		if len(missing) > 0 {
			sort.Strings(missing)
			out.Violations = append(out.Violations, models.Violationf(models.KindHubViolation, doc,
				"no declared link from hub %s", strings.Join(missing, ", ")))
		}
	}
	return out
}

// HubPaths returns the distinct hubs named by rules, sorted.
func HubPaths(rules []HubRule) []string {
	var out []string
	for _, r := range rules {
		for _, h := range r.Hubs {
			out = appendUnique(out, h)
		}
	}
	sort.Strings(out)
	return out
}

// Validate checks the rule pattern and hub list.
func (r HubRule) Validate() error {
	if !doublestar.ValidatePattern(r.Pattern) {
		return fmt.Errorf("policy: invalid hub pattern %q", r.Pattern)
	}
	if len(r.Hubs) == 0 {
		return fmt.Errorf("policy: hub rule %q names no hubs", r.Pattern)
	}
	return nil
}

func toSet(s []string) map[string]bool {
	m := make(map[string]bool, len(s))
	for _, v := range s {
		m[v] = true
	}
	return m
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func appendUnique(s []string, v string) []string {
	if contains(s, v) {
		return s
	}
	return append(s, v)
}
