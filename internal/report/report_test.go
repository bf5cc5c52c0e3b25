package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/skillgate/internal/models"
)

var fixed = time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))

func TestBuild_OrderingAndCounts(t *testing.T) {
	in := Input{
		Violations: []models.Violation{
			models.NewViolation(models.KindOrphan, "z.md", "unreachable"),
			models.NewViolation(models.KindBrokenLink, "b.md", `target "y"`),
			models.NewViolation(models.KindBrokenLink, "a.md", `target "x"`),
			models.NewViolation(models.KindBrokenLink, "a.md", `target "x"`),
			models.NewViolation(models.KindHubViolation, "c.md", "no hub"),
		},
		Documents: 4,
		Now:       fixed,
	}
	r := Build(in, Policy{}, Gates{MaxOrphans: 5})

	require.Len(t, r.Violations, 4)
	assert.Equal(t, "a.md", r.Violations[0].Subject)
	assert.Equal(t, "b.md", r.Violations[1].Subject)
	assert.Equal(t, models.KindHubViolation, r.Violations[2].Kind)
	assert.Equal(t, models.KindOrphan, r.Violations[3].Kind)
	assert.Equal(t, models.SeverityWarning, r.Violations[3].Severity)

	assert.Equal(t, 2, r.BrokenLinks)
	assert.Equal(t, 1, r.HubViolations)
	assert.Equal(t, 1, r.Orphans)
	assert.False(t, r.Passed)
	assert.Equal(t, "2024-03-01T11:00:00Z", r.Timestamp)
}

func TestBuild_OrphanCeiling(t *testing.T) {
	orphans := []models.Violation{
		models.NewViolation(models.KindOrphan, "a.md", "unreachable"),
		models.NewViolation(models.KindOrphan, "b.md", "unreachable"),
	}
	assert.True(t, Build(Input{Violations: orphans, Now: fixed}, Policy{}, Gates{MaxOrphans: 2}).Passed)
	assert.False(t, Build(Input{Violations: orphans, Now: fixed}, Policy{}, Gates{MaxOrphans: 1}).Passed)
}

func TestBuild_ErrorSeverityFailsRegardlessOfGates(t *testing.T) {
	vs := []models.Violation{models.NewViolation(models.KindCycle, "a", "dependency cycle a -> a")}
	r := Build(Input{Violations: vs, Now: fixed}, Policy{}, Gates{})
	assert.False(t, r.Passed)
	assert.Equal(t, 1, r.Errors())

	relaxed := Policy{SeverityOverrides: map[models.Kind]models.Severity{models.KindCycle: models.SeverityWarning}}
	r = Build(Input{Violations: vs, Now: fixed}, relaxed, Gates{})
	assert.True(t, r.Passed)
	assert.Equal(t, 1, r.Warnings())
}

func TestMarshal_Stable(t *testing.T) {
	r := Build(Input{Documents: 1, Digest: "abc", Now: fixed}, Policy{}, Gates{})
	data, err := r.Marshal()
	require.NoError(t, err)

	s := string(data)
	assert.True(t, strings.HasSuffix(s, "}\n"))
	assert.Contains(t, s, "\n  \"broken_links\": 0,")
	assert.Contains(t, s, `"violations": []`)

	again, err := Build(Input{Documents: 1, Digest: "abc", Now: fixed}, Policy{}, Gates{}).Marshal()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestWriteFile_Atomic(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "reports", "audit.json")
	r := Build(Input{Now: fixed}, Policy{}, Gates{})
	require.NoError(t, r.WriteFile(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"passed": true`)

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
