// Package validate checks skill packages: header fields, tier headings,
// tier token budgets, and declared resources.
package validate

import (
	"fmt"
	"path"
	"strings"

	"github.com/starford/skillgate/internal/graph"
	"github.com/starford/skillgate/internal/header"
	"github.com/starford/skillgate/internal/models"
	"github.com/starford/skillgate/internal/parser"
	"github.com/starford/skillgate/internal/tokens"
)

// Tier describes one progressive-disclosure level of a package body.
type Tier struct {
	ID               models.TierID
	Heading          string
	RequiredHeadings []string
	TokenBudget      int
	AllowDuplicates  bool
}

// Rules parameterise the validator.
type Rules struct {
	NameMaxLength int
	DescMinLength int
	DescMaxLength int
	Tiers         []Tier
}

// Validator checks packages against Rules.
type Validator struct {
	rules     Rules
	files     graph.FileChecker
	estimator tokens.Estimator
}

// New creates a Validator. files resolves resource existence.
func New(rules Rules, files graph.FileChecker, est tokens.Estimator) *Validator {
	if est == nil {
		est = tokens.Default
	}
	return &Validator{rules: rules, files: files, estimator: est}
}

// Slug returns the package slug for a package document: the base name of
// its directory.
func Slug(docPath string) string {
	return path.Base(path.Dir(docPath))
}

// Validate runs every check on doc and returns the derived package together
// with all violations, subject to the package slug. Checks are not
// fail-fast, except that a missing header skips the structural checks and
// reports that skip.
func (v *Validator) Validate(doc *models.Document) (models.SkillPackage, []models.Violation) {
	slug := Slug(doc.Path)
	pkg := models.SkillPackage{
		Slug:        slug,
		Dir:         path.Dir(doc.Path),
		Path:        doc.Path,
		Name:        doc.Header.Name,
		Description: doc.Header.Desc,
		Requires:    doc.Header.Requires,
		Related:     doc.Header.Related,
		Resources:   doc.Header.Resources,
	}

	if !doc.Header.Present {
		return pkg, []models.Violation{models.Violationf(models.KindMissingHeaderField, slug,
			"%s; structural checks skipped", strings.Join(doc.Header.Problems, "; "))}
	}

	var out []models.Violation
	out = append(out, v.checkHeader(slug, doc.Header)...)

	tiers, tierViolations := v.checkTiers(slug, doc)
	pkg.Tiers = tiers
	out = append(out, tierViolations...)

	out = append(out, v.checkResources(slug, doc)...)
	return pkg, out
}

func (v *Validator) checkHeader(slug string, info models.HeaderInfo) []models.Violation {
	errs := header.Validate(header.FromInfo(info), header.Rules{
		Slug:          slug,
		NameMaxLength: v.rules.NameMaxLength,
		DescMinLength: v.rules.DescMinLength,
		DescMaxLength: v.rules.DescMaxLength,
	})

	out := make([]models.Violation, 0, len(errs))
	for _, e := range errs {
		if e.Missing {
			out = append(out, models.NewViolation(models.KindMissingHeaderField, slug, e.Message))
			continue
		}
		out = append(out, models.Violationf(models.KindInvalidHeaderField, slug, "%s: %s", e.Field, e.Message))
	}
	return out
}

func (v *Validator) checkTiers(slug string, doc *models.Document) ([]models.TierInfo, []models.Violation) {
	var (
		infos []models.TierInfo
		out   []models.Violation
	)
	for _, tier := range v.rules.Tiers {
		info := models.TierInfo{ID: tier.ID, Budget: tier.TokenBudget}

		idx := findSection(doc.Sections, tier.Heading)
		if idx < 0 {
			infos = append(infos, info)
			out = append(out, models.Violationf(models.KindMissingSection, slug,
				"tier %s: heading %q not found", tier.ID, tier.Heading))
			continue
		}
		top := doc.Sections[idx]
		info.Present = true
		info.Tokens = v.estimator(doc.Raw[top.Start:top.End])

		inner := subsections(doc.Sections, idx)
		for _, s := range inner {
			info.Headings = append(info.Headings, s.Heading)
		}

		if info.Tokens > tier.TokenBudget {
			out = append(out, models.Violationf(models.KindTokenBudgetExceeded, slug,
				"tier %s: %d tokens exceeds budget of %d", tier.ID, info.Tokens, tier.TokenBudget))
		}

		for _, req := range tier.RequiredHeadings {
			if findSection(inner, req) < 0 {
				out = append(out, models.Violationf(models.KindMissingSection, slug,
					"tier %s: required heading %q missing", tier.ID, req))
			}
		}

		if !tier.AllowDuplicates {
			seen := map[string]bool{}
			for _, s := range inner {
				key := fmt.Sprintf("%d\x00%s", s.Level, parser.NormalizeHeading(s.Heading))
				if seen[key] {
					out = append(out, models.Violationf(models.KindDuplicateSection, slug,
						"tier %s: duplicate heading %q at level %d", tier.ID, s.Heading, s.Level))
					continue
				}
				seen[key] = true
			}
		}
		infos = append(infos, info)
	}
	return infos, out
}

func (v *Validator) checkResources(slug string, doc *models.Document) []models.Violation {
	var out []models.Violation
	for _, r := range doc.Header.Resources {
		p, ok := graph.Normalize(doc.Path, r)
		if !ok {
			out = append(out, models.Violationf(models.KindInvalidResourceReference, slug,
				"resource %q escapes the corpus root", r))
			continue
		}
		if v.files == nil || !v.files.Exists(p) {
			out = append(out, models.Violationf(models.KindInvalidResourceReference, slug,
				"resource %q does not exist", r))
		}
	}
	return out
}

// findSection returns the index of the first headed section whose heading
// equals want modulo case and whitespace, or -1.
func findSection(sections []models.Section, want string) int {
	want = parser.NormalizeHeading(want)
	for i, s := range sections {
		if s.Level > 0 && parser.NormalizeHeading(s.Heading) == want {
			return i
		}
	}
	return -1
}

// subsections returns the sections nested inside sections[idx].
func subsections(sections []models.Section, idx int) []models.Section {
	top := sections[idx]
	var out []models.Section
	for _, s := range sections[idx+1:] {
		if s.Start >= top.End {
			break
		}
		out = append(out, s)
	}
	return out
}

// Tiers measures each configured tier of doc without reporting violations.
// It works on any document, with or without a header block.
func (v *Validator) Tiers(doc *models.Document) []models.TierInfo {
	infos, _ := v.checkTiers(Slug(doc.Path), doc)
	return infos
}
