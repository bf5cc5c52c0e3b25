// Package audit runs the full corpus audit: parallel parse, one barrier,
// then graph, policy, package and cycle checks merged into one report.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/starford/skillgate/internal/apperr"
	"github.com/starford/skillgate/internal/checksum"
	"github.com/starford/skillgate/internal/cycle"
	"github.com/starford/skillgate/internal/graph"
	"github.com/starford/skillgate/internal/loader"
	"github.com/starford/skillgate/internal/models"
	"github.com/starford/skillgate/internal/policy"
	"github.com/starford/skillgate/internal/report"
	"github.com/starford/skillgate/internal/storage"
	"github.com/starford/skillgate/internal/tokens"
	"github.com/starford/skillgate/internal/validate"
)

// Settings is the audit configuration threaded through every check.
type Settings struct {
	Roots        []string
	HubRules     []policy.HubRule
	HubExempt    []string
	OrphanExempt []string

	PackageRoot      string
	PackageFile      string
	DependencyFields []string
	Validation       validate.Rules

	Policy  report.Policy
	Gates   report.Gates
	Workers int
}

// Result holds the report plus the intermediate structures renderers use.
type Result struct {
	Report    *report.Report
	Documents []*models.Document
	Graph     *graph.Graph
	Hubs      policy.HubReport
	Packages  []models.SkillPackage
	Cycles    []cycle.Cycle
}

// Engine runs audits against one corpus.
type Engine struct {
	store     storage.Provider
	settings  Settings
	loader    *loader.Loader
	validator *validate.Validator
	logger    *slog.Logger
}

// New creates an Engine.
func New(store storage.Provider, s Settings, est tokens.Estimator, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if est == nil {
		est = tokens.Default
	}
	return &Engine{
		store:     store,
		settings:  s,
		loader:    loader.New(store, est, s.Workers, logger),
		validator: validate.New(s.Validation, store, est),
		logger:    logger,
	}
}

// Run audits the whole corpus. now stamps the report. An error means no
// report was produced.
func (e *Engine) Run(ctx context.Context, now time.Time) (*Result, error) {
	start := time.Now()

	docs, err := e.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	// Everything below needs the complete document set.
	var violations []models.Violation
	sums := make(map[string]string, len(docs))
	for _, d := range docs {
		sums[d.Path] = d.Checksum
		for _, m := range d.Malformed {
			violations = append(violations, models.NewViolation(models.KindMalformedDeclaration, d.Path, m))
		}
	}

	g, broken := graph.Build(docs, e.store)
	violations = append(violations, broken...)

	hubs := policy.CheckHubs(g, e.settings.HubRules, e.settings.HubExempt)
	violations = append(violations, hubs.Violations...)

	reach := policy.FindOrphans(g, e.settings.Roots, e.settings.HubRules, e.settings.OrphanExempt)
	violations = append(violations, reach.Violations...)

	var packages []models.SkillPackage
	deps := map[string][]string{}
	for _, d := range docs {
		if !e.IsPackage(d.Path) {
			continue
		}
		pkg, vs := e.validator.Validate(d)
		packages = append(packages, pkg)
		violations = append(violations, vs...)
		deps[pkg.Slug] = e.dependencies(d.Header)
	}

	cycles, cycleViolations := cycle.Detect(deps)
	violations = append(violations, cycleViolations...)

	rep := report.Build(report.Input{
		Violations: violations,
		Documents:  len(docs),
		Packages:   len(packages),
		Digest:     checksum.Corpus(sums),
		Now:        now,
	}, e.settings.Policy, e.settings.Gates)

	e.logger.Info("audit: completed",
		slog.Int("documents", rep.Documents),
		slog.Int("packages", rep.Packages),
		slog.Int("broken_links", rep.BrokenLinks),
		slog.Int("hub_violations", rep.HubViolations),
		slog.Int("orphans", rep.Orphans),
		slog.Int("violations", len(rep.Violations)),
		slog.Bool("passed", rep.Passed),
		slog.Duration("elapsed", time.Since(start)))

	return &Result{
		Report:    rep,
		Documents: docs,
		Graph:     g,
		Hubs:      hubs,
		Packages:  packages,
		Cycles:    cycles,
	}, nil
}

// IsPackage reports whether a document path is a package document: a file
// named PackageFile inside a directory below PackageRoot.
func (e *Engine) IsPackage(p string) bool {
	if path.Base(p) != e.settings.PackageFile {
		return false
	}
	dir := path.Dir(p)
	root := path.Clean(e.settings.PackageRoot)
	if root == "." {
		return dir != "."
	}
	return strings.HasPrefix(dir, root+"/")
}

// PackagePath returns the document path of the package with slug.
func (e *Engine) PackagePath(slug string) string {
	return path.Join(e.settings.PackageRoot, slug, e.settings.PackageFile)
}

// ValidatePackage runs the structural checks on one package. Violations
// carry their policy severities.
func (e *Engine) ValidatePackage(slug string) (models.SkillPackage, []models.Violation, error) {
	if !validSlugPath(slug) {
		return models.SkillPackage{}, nil, fmt.Errorf("audit: package %q: %w", slug, apperr.ErrNotFound)
	}
	doc, err := e.loader.LoadOne(e.PackagePath(slug))
	if err != nil {
		return models.SkillPackage{}, nil, err
	}
	pkg, vs := e.validator.Validate(doc)
	return pkg, report.Sort(e.settings.Policy.Apply(vs)), nil
}

// ListPackages returns every package found in the corpus, sorted by slug,
// without running the graph checks.
func (e *Engine) ListPackages() ([]models.SkillPackage, error) {
	metas, err := e.store.List()
	if err != nil {
		return nil, fmt.Errorf("audit: %w: %w", apperr.ErrCorpusUnreadable, err)
	}
	var out []models.SkillPackage
	for _, m := range metas {
		if !e.IsPackage(m.Path) {
			continue
		}
		doc, err := e.loader.LoadOne(m.Path)
		if err != nil {
			return nil, err
		}
		pkg, _ := e.validator.Validate(doc)
		out = append(out, pkg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// ReadDocument returns the raw content of the selected corpus file at p.
// Unselected paths and directories are not found.
func (e *Engine) ReadDocument(p string) ([]byte, error) {
	p = path.Clean(p)
	if !e.store.Selected(p) || !e.store.IsFile(p) {
		return nil, fmt.Errorf("audit: read document %q: %w", p, apperr.ErrNotFound)
	}
	data, err := e.store.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("audit: read document %q: %w", p, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("audit: %w: %w", apperr.ErrCorpusUnreadable, err)
	}
	return data, nil
}

// TokenEstimate is the per-tier token breakdown of one document.
type TokenEstimate struct {
	Path     string            `json:"path"`
	Preamble int               `json:"preamble"`
	Total    int               `json:"total"`
	Tiers    []models.TierInfo `json:"tiers"`
}

// EstimateTokens measures the document at p.
func (e *Engine) EstimateTokens(p string) (TokenEstimate, error) {
	doc, err := e.loader.LoadOne(path.Clean(p))
	if err != nil {
		return TokenEstimate{}, err
	}
	est := TokenEstimate{Path: doc.Path, Total: doc.Tokens, Tiers: e.validator.Tiers(doc)}
	if len(doc.Sections) > 0 && doc.Sections[0].Level == 0 {
		est.Preamble = doc.Sections[0].TokenCount
	}
	return est, nil
}

func (e *Engine) dependencies(h models.HeaderInfo) []string {
	var out []string
	for _, f := range e.settings.DependencyFields {
		switch f {
		case "requires":
			out = append(out, h.Requires...)
		case "related":
			out = append(out, h.Related...)
		}
	}
	return out
}

func validSlugPath(slug string) bool {
	return slug != "" && !strings.ContainsAny(slug, `/\`) && slug != "." && slug != ".."
}
