package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/skillgate/internal/models"
	"github.com/starford/skillgate/internal/parser"
	"github.com/starford/skillgate/internal/tokens"
)

type fileSet map[string]bool

func (f fileSet) Exists(p string) bool { return f[p] }

var defaultRules = Rules{
	NameMaxLength: 64,
	DescMinLength: 20,
	DescMaxLength: 1024,
	Tiers: []Tier{
		{ID: "summary", Heading: "Level 1: Quick Start", RequiredHeadings: []string{"Core Principles", "Essential Checklist"}, TokenBudget: 2000},
		{ID: "implementation", Heading: "Level 2: Implementation", TokenBudget: 5000},
		{ID: "reference", Heading: "Level 3: Mastery", TokenBudget: 8000, AllowDuplicates: true},
	},
}

const goodBody = "## Level 1: Quick Start\n### Core Principles\nx\n### Essential Checklist\n- y\n" +
	"## Level 2: Implementation\nsteps\n" +
	"## Level 3: Mastery\n### Notes\na\n### Notes\nb\n"

func pkgDoc(slug, hdr, body string) *models.Document {
	return parser.Parse("skills/"+slug+"/SKILL.md", []byte(hdr+body), tokens.Default)
}

func withHeader(name string) string {
	return "---\nname: " + name + "\ndescription: Use this package when auditing corpora.\n---\n"
}

func kinds(vs []models.Violation) []models.Kind {
	var out []models.Kind
	for _, v := range vs {
		out = append(out, v.Kind)
	}
	return out
}

func TestValidate_CleanPackage(t *testing.T) {
	v := New(defaultRules, fileSet{}, nil)
	pkg, vs := v.Validate(pkgDoc("audit-kit", withHeader("audit-kit"), goodBody))
	assert.Empty(t, vs)
	assert.Equal(t, "audit-kit", pkg.Slug)
	require.Len(t, pkg.Tiers, 3)
	for _, tier := range pkg.Tiers {
		assert.True(t, tier.Present, tier.ID)
		assert.Positive(t, tier.Tokens)
	}
}

func TestValidate_SlugMismatchIsSingleViolation(t *testing.T) {
	v := New(defaultRules, fileSet{}, nil)
	_, vs := v.Validate(pkgDoc("zero-trust", withHeader("zero_trust"), goodBody))
	require.Len(t, vs, 1)
	assert.Equal(t, models.KindInvalidHeaderField, vs[0].Kind)
	assert.Equal(t, "zero-trust", vs[0].Subject)
	assert.Contains(t, vs[0].Detail, "does not match")
}

func TestValidate_MissingHeaderSkipsStructuralChecks(t *testing.T) {
	v := New(defaultRules, fileSet{}, nil)
	_, vs := v.Validate(pkgDoc("bare", "", "# Nothing here\n"))
	require.Len(t, vs, 1)
	assert.Equal(t, models.KindMissingHeaderField, vs[0].Kind)
	assert.Contains(t, vs[0].Detail, "structural checks skipped")
}

func TestValidate_MissingFieldsReportedIndividually(t *testing.T) {
	v := New(defaultRules, fileSet{}, nil)
	_, vs := v.Validate(pkgDoc("empty", "---\nrequires: []\n---\n", goodBody))
	assert.Equal(t, []models.Kind{models.KindMissingHeaderField, models.KindMissingHeaderField}, kinds(vs))
}

func TestValidate_MissingRequiredHeadingsIndividually(t *testing.T) {
	body := "## Level 1: Quick Start\n### Overview\n" +
		"## Level 2: Implementation\n### Core Principles\n" +
		"## Level 3: Mastery\n"
	v := New(defaultRules, fileSet{}, nil)
	_, vs := v.Validate(pkgDoc("kit", withHeader("kit"), body))

	require.Len(t, vs, 2)
	assert.Equal(t, models.KindMissingSection, vs[0].Kind)
	assert.Contains(t, vs[0].Detail, `"Core Principles"`)
	assert.Contains(t, vs[1].Detail, `"Essential Checklist"`)
}

func TestValidate_MissingTierIsOneViolation(t *testing.T) {
	body := "## Level 2: Implementation\n## Level 3: Mastery\n"
	v := New(defaultRules, fileSet{}, nil)
	_, vs := v.Validate(pkgDoc("kit", withHeader("kit"), body))
	require.Len(t, vs, 1)
	assert.Equal(t, models.KindMissingSection, vs[0].Kind)
	assert.Contains(t, vs[0].Detail, "tier summary")
}

func TestValidate_HeadingMatchIgnoresCaseAndSpacing(t *testing.T) {
	body := "## level 1:  QUICK start\n### core principles\n### Essential   Checklist\n" +
		"## Level 2: Implementation\n## Level 3: Mastery\n"
	v := New(defaultRules, fileSet{}, nil)
	_, vs := v.Validate(pkgDoc("kit", withHeader("kit"), body))
	assert.Empty(t, vs)
}

func TestValidate_TokenBudgetBoundaryInclusive(t *testing.T) {
	tier1 := "## Level 1: Quick Start\n### Core Principles\n### Essential Checklist\n" + strings.Repeat("a", 40) + "\n"
	body := tier1 + "## Level 2: Implementation\n## Level 3: Mastery\n"
	size := len(tier1)

	rules := defaultRules
	rules.Tiers = append([]Tier{}, defaultRules.Tiers...)
	est := tokens.CharRatio(1)

	rules.Tiers[0].TokenBudget = size
	_, vs := New(rules, fileSet{}, est).Validate(pkgDoc("kit", withHeader("kit"), body))
	assert.Empty(t, vs, "a tier exactly at budget passes")

	rules.Tiers[0].TokenBudget = size - 1
	_, vs = New(rules, fileSet{}, est).Validate(pkgDoc("kit", withHeader("kit"), body))
	require.Len(t, vs, 1)
	assert.Equal(t, models.KindTokenBudgetExceeded, vs[0].Kind)
}

func TestValidate_DuplicateSections(t *testing.T) {
	body := "## Level 1: Quick Start\n### Core Principles\n### Essential Checklist\n### Core Principles\n" +
		"## Level 2: Implementation\n## Level 3: Mastery\n### A\n### A\n"
	v := New(defaultRules, fileSet{}, nil)
	_, vs := v.Validate(pkgDoc("kit", withHeader("kit"), body))
	require.Len(t, vs, 1)
	assert.Equal(t, models.KindDuplicateSection, vs[0].Kind)
	assert.Contains(t, vs[0].Detail, "tier summary")
}

func TestValidate_Resources(t *testing.T) {
	hdr := "---\nname: kit\ndescription: Use this package when auditing corpora.\n" +
		"resources:\n  - resources/checklist.md\n  - scripts/\n  - missing.txt\n  - ../../../etc/passwd\n---\n"
	files := fileSet{"skills/kit/resources/checklist.md": true, "skills/kit/scripts": true}
	_, vs := New(defaultRules, files, nil).Validate(pkgDoc("kit", hdr, goodBody))

	require.Len(t, vs, 2)
	for _, v := range vs {
		assert.Equal(t, models.KindInvalidResourceReference, v.Kind)
	}
	assert.Contains(t, vs[0].Detail, "missing.txt")
	assert.Contains(t, vs[1].Detail, "escapes")
}
