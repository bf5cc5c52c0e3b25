// Package report aggregates violations into the deterministic audit report
// and evaluates the CI gates.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/starford/skillgate/internal/models"
	"github.com/starford/skillgate/internal/storage"
)

// Report is the serialized audit result.
type Report struct {
	BrokenLinks   int                `json:"broken_links"`
	HubViolations int                `json:"hub_violations"`
	Orphans       int                `json:"orphans"`
	Documents     int                `json:"documents"`
	Packages      int                `json:"packages"`
	CorpusDigest  string             `json:"corpus_digest"`
	Passed        bool               `json:"passed"`
	Violations    []models.Violation `json:"violations"`
	Timestamp     string             `json:"timestamp"`
}

// Input carries everything Build needs from one audit run.
type Input struct {
	Violations []models.Violation
	Documents  int
	Packages   int
	Digest     string
	Now        time.Time
}

// Build merges the violation streams, assigns severities, orders them by
// kind, subject and detail, and evaluates gates. Identical violations are
// collapsed.
func Build(in Input, policy Policy, gates Gates) *Report {
	vs := Sort(policy.Apply(in.Violations))

	r := &Report{
		Documents:    in.Documents,
		Packages:     in.Packages,
		CorpusDigest: in.Digest,
		Violations:   make([]models.Violation, 0, len(vs)),
		Timestamp:    in.Now.UTC().Format(time.RFC3339),
	}
	for i, v := range vs {
		if i > 0 && v == vs[i-1] {
			continue
		}
		r.Violations = append(r.Violations, v)
		switch v.Kind {
		case models.KindBrokenLink:
			r.BrokenLinks++
		case models.KindHubViolation:
			r.HubViolations++
		case models.KindOrphan:
			r.Orphans++
		}
	}
	r.Passed = r.BrokenLinks <= gates.MaxBrokenLinks &&
		r.HubViolations <= gates.MaxHubViolations &&
		r.Orphans <= gates.MaxOrphans &&
		r.Errors() == 0
	return r
}

// Sort orders violations by kind, then subject, then detail.
func Sort(vs []models.Violation) []models.Violation {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		return a.Detail < b.Detail
	})
	return vs
}

// Errors counts error-severity violations.
func (r *Report) Errors() int {
	return countSeverity(r.Violations, models.SeverityError)
}

// Warnings counts warning-severity violations.
func (r *Report) Warnings() int {
	return countSeverity(r.Violations, models.SeverityWarning)
}

// Marshal encodes the report as two-space indented JSON with a trailing
// newline.
func (r *Report) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("report: marshal: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile marshals the report and writes it atomically to path.
func (r *Report) WriteFile(path string) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	if err := storage.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}

// HasErrors reports whether vs contains an error-severity violation.
func HasErrors(vs []models.Violation) bool {
	return countSeverity(vs, models.SeverityError) > 0
}

func countSeverity(vs []models.Violation, s models.Severity) int {
	n := 0
	for _, v := range vs {
		if v.Severity == s {
			n++
		}
	}
	return n
}
