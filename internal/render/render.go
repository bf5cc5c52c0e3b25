// Package render writes command results as JSON or as text tables.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/starford/skillgate/internal/audit"
	"github.com/starford/skillgate/internal/models"
	"github.com/starford/skillgate/internal/policy"
	"github.com/starford/skillgate/internal/report"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatTable = "table"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatJSON, FormatTable}

// ParseFormat validates a format name; empty means JSON.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatTable:
		return FormatTable, nil
	}
	return "", fmt.Errorf("render: unknown format %q (want %s)", s, strings.Join(Formats, " or "))
}

// JSON writes v as two-space indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// Report writes the audit report. The JSON form is the canonical report
// encoding.
func Report(w io.Writer, res *audit.Result, format string) error {
	if format != FormatTable {
		data, err := res.Report.Marshal()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	r := res.Report
	summary := newTable(w)
	summary.AppendHeader(table.Row{"Metric", "Value"})
	summary.AppendRows([]table.Row{
		{"documents", r.Documents},
		{"packages", r.Packages},
		{"broken links", r.BrokenLinks},
		{"hub violations", r.HubViolations},
		{"orphans", r.Orphans},
		{"errors", r.Errors()},
		{"warnings", r.Warnings()},
		{"corpus digest", shortDigest(r.CorpusDigest)},
		{"timestamp", r.Timestamp},
		{"passed", r.Passed},
	})
	summary.Render()

	if len(res.Hubs.Matrix) > 0 {
		_, _ = fmt.Fprintln(w)
		hubMatrix(w, res.Hubs.Matrix)
	}

	_, _ = fmt.Fprintln(w)
	violations(w, r.Violations)
	return nil
}

func hubMatrix(w io.Writer, rows []policy.MatrixRow) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Document", "Expected hubs", "Linked from", "Covered"})
	for _, row := range rows {
		t.AppendRow(table.Row{
			row.Document,
			strings.Join(row.Expected, "\n"),
			strings.Join(row.Linked, "\n"),
			row.Covered(),
		})
	}
	t.Render()
}

func violations(w io.Writer, vs []models.Violation) {
	if len(vs) == 0 {
		_, _ = fmt.Fprintln(w, "(no violations)")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Severity", "Kind", "Subject", "Detail"})
	for _, v := range vs {
		t.AppendRow(table.Row{v.Severity, v.Kind, v.Subject, v.Detail})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d violations)\n", len(vs))
}

// PackageResult is the validate-package output.
type PackageResult struct {
	Package    models.SkillPackage `json:"package"`
	Passed     bool                `json:"passed"`
	Violations []models.Violation  `json:"violations"`
}

// NewPackageResult wraps a validation outcome.
func NewPackageResult(pkg models.SkillPackage, vs []models.Violation) PackageResult {
	if vs == nil {
		vs = []models.Violation{}
	}
	return PackageResult{Package: pkg, Passed: !report.HasErrors(vs), Violations: vs}
}

// Package writes a package validation result.
func Package(w io.Writer, res PackageResult, format string) error {
	if format != FormatTable {
		return JSON(w, res)
	}
	_, _ = fmt.Fprintf(w, "package %s (%s)\n", res.Package.Slug, res.Package.Path)
	tiers(w, res.Package.Tiers)
	_, _ = fmt.Fprintln(w)
	violations(w, res.Violations)
	return nil
}

// Tokens writes a token estimate.
func Tokens(w io.Writer, est audit.TokenEstimate, format string) error {
	if format != FormatTable {
		return JSON(w, est)
	}
	_, _ = fmt.Fprintln(w, est.Path)
	t := newTable(w)
	t.AppendHeader(table.Row{"Tier", "Present", "Tokens", "Budget", "Within budget"})
	for _, tier := range est.Tiers {
		t.AppendRow(table.Row{tier.ID, tier.Present, tier.Tokens, tier.Budget, tier.Tokens <= tier.Budget})
	}
	t.AppendFooter(table.Row{"preamble", "", est.Preamble, "", ""})
	t.AppendFooter(table.Row{"total", "", est.Total, "", ""})
	t.Render()
	return nil
}

// Packages writes the package list.
func Packages(w io.Writer, pkgs []models.SkillPackage, format string) error {
	if format != FormatTable {
		if pkgs == nil {
			pkgs = []models.SkillPackage{}
		}
		return JSON(w, pkgs)
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Slug", "Name", "Requires", "Description"})
	for _, p := range pkgs {
		t.AppendRow(table.Row{p.Slug, p.Name, strings.Join(p.Requires, ", "), p.Description})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d packages)\n", len(pkgs))
	return nil
}

func tiers(w io.Writer, ts []models.TierInfo) {
	if len(ts) == 0 {
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Tier", "Present", "Tokens", "Budget"})
	for _, tier := range ts {
		t.AppendRow(table.Row{tier.ID, tier.Present, tier.Tokens, tier.Budget})
	}
	t.Render()
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
