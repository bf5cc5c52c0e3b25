package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/skillgate/internal/audit"
	"github.com/starford/skillgate/internal/models"
	"github.com/starford/skillgate/internal/policy"
	"github.com/starford/skillgate/internal/report"
)

func result() *audit.Result {
	rep := report.Build(report.Input{
		Violations: []models.Violation{models.NewViolation(models.KindOrphan, "lost.md", "not reachable from any root or hub")},
		Documents:  3,
		Digest:     "0123456789abcdef",
		Now:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}, report.Policy{}, report.Gates{MaxOrphans: 1})
	return &audit.Result{
		Report: rep,
		Hubs: policy.HubReport{Matrix: []policy.MatrixRow{
			{Document: "docs/a.md", Expected: []string{"docs/HUB.md"}, Linked: []string{"docs/HUB.md"}},
		}},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	f, err = ParseFormat("TABLE")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestReport_JSONIsCanonical(t *testing.T) {
	res := result()
	var buf bytes.Buffer
	require.NoError(t, Report(&buf, res, FormatJSON))
	want, err := res.Report.Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(want), buf.String())
}

func TestReport_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Report(&buf, result(), FormatTable))
	out := buf.String()
	assert.Contains(t, out, "hub violations")
	assert.Contains(t, out, "0123456789ab")
	assert.Contains(t, out, "docs/HUB.md")
	assert.Contains(t, out, "lost.md")
	assert.Contains(t, out, "(1 violations)")
}

func TestTokens_Table(t *testing.T) {
	est := audit.TokenEstimate{
		Path:     "skills/kit/SKILL.md",
		Preamble: 3,
		Total:    120,
		Tiers:    []models.TierInfo{{ID: "summary", Present: true, Tokens: 50, Budget: 2000}},
	}
	var buf bytes.Buffer
	require.NoError(t, Tokens(&buf, est, FormatTable))
	assert.Contains(t, buf.String(), "summary")
	assert.Contains(t, buf.String(), "2000")
}

func TestNewPackageResult(t *testing.T) {
	res := NewPackageResult(models.SkillPackage{Slug: "kit"}, nil)
	assert.True(t, res.Passed)
	assert.NotNil(t, res.Violations)

	vs := []models.Violation{{Kind: models.KindMissingSection, Subject: "kit", Severity: models.SeverityError}}
	assert.False(t, NewPackageResult(models.SkillPackage{Slug: "kit"}, vs).Passed)
}

func TestPackages(t *testing.T) {
	pkgs := []models.SkillPackage{
		{Slug: "kit", Name: "kit", Requires: []string{"base", "net"}, Description: "Use when testing."},
	}
	var buf bytes.Buffer
	require.NoError(t, Packages(&buf, pkgs, FormatTable))
	assert.Contains(t, buf.String(), "base, net")
	assert.Contains(t, buf.String(), "(1 packages)")

	buf.Reset()
	require.NoError(t, Packages(&buf, nil, FormatJSON))
	assert.Equal(t, "[]\n", buf.String())
}
