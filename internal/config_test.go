package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/skillgate/internal/models"
	"github.com/starford/skillgate/internal/policy"
	pkgconfig "github.com/starford/skillgate/pkg/config"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	s := cfg.AuditSettings()
	assert.Equal(t, []string{"README.md"}, s.Roots)
	assert.Equal(t, "skills", s.PackageRoot)
	assert.Equal(t, "SKILL.md", s.PackageFile)
	assert.Equal(t, 5, s.Gates.MaxOrphans)
	assert.Equal(t, 8, s.Workers)
	require.Len(t, s.Validation.Tiers, 3)
	assert.Equal(t, models.TierID("summary"), s.Validation.Tiers[0].ID)
	assert.True(t, s.Validation.Tiers[2].AllowDuplicates)
}

func TestApplicationConfig_EmptyFormatDefaultsJSON(t *testing.T) {
	cfg := ApplicationConfig{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
}

func TestApplicationConfig_InvalidFormat(t *testing.T) {
	cfg := ApplicationConfig{LogFormat: "xml"}
	assert.Error(t, cfg.Validate())
}

func TestCorpusConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *CorpusConfig)
	}{
		{"empty root", func(c *CorpusConfig) { c.Root = "" }},
		{"zero workers", func(c *CorpusConfig) { c.Workers = 0 }},
		{"bad include", func(c *CorpusConfig) { c.Include = []string{"[a"} }},
		{"bad exclude", func(c *CorpusConfig) { c.Exclude = []string{"{x"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(&cfg.Corpus)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLinksConfig_InvalidHubRule(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Links.Hubs = []policy.HubRule{{Pattern: "docs/**/*.md"}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hubs[0]")
}

func TestPackagesConfig_InvalidTier(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Packages.Tiers[1].TokenBudget = 0
	assert.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.Packages.DependencyFields = []string{"requires", "extends"}
	assert.Error(t, cfg.Validate())
}

func TestSeverityConfig(t *testing.T) {
	assert.NoError(t, SeverityConfig{"Orphan": "error"}.Validate())

	err := SeverityConfig{"Nope": "error"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown violation kind")

	assert.Error(t, SeverityConfig{"Orphan": "fatal"}.Validate())

	p := SeverityConfig{"Orphan": "error"}.Policy()
	assert.Equal(t, models.SeverityError, p.Severity(models.KindOrphan))
	assert.Equal(t, models.SeverityError, p.Severity(models.KindBrokenLink))
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("SKILLGATE_TEST_ROOT", "/srv/corpus")
	content := strings.Join([]string{
		"app:",
		"  log_level: debug",
		"  log_format: text",
		"corpus:",
		"  root: ${SKILLGATE_TEST_ROOT}",
		"links:",
		"  hubs:",
		"    - pattern: docs/standards/**/*.md",
		"      hubs: [docs/standards/UNIFIED_STANDARDS.md]",
		"severity:",
		"  Orphan: error",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := NewDefaultConfig()
	require.NoError(t, pkgconfig.Load(path, cfg))

	assert.Equal(t, "/srv/corpus", cfg.Corpus.Root)
	assert.Equal(t, LogFormatText, cfg.App.LogFormat)
	assert.Equal(t, "DEBUG", cfg.App.LogLevel.String())
	assert.Equal(t, 8, cfg.Corpus.Workers)
	require.Len(t, cfg.Links.Hubs, 1)
	assert.Equal(t, models.SeverityError, cfg.AuditSettings().Policy.Severity(models.KindOrphan))
}

func TestLegacyMappingsPath(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Corpus.Root = "/corpus"
	assert.Equal(t,
		filepath.Join("/corpus", "skills", "legacy-bridge", "resources", "legacy-mappings.yaml"),
		cfg.LegacyMappingsPath())

	cfg.Legacy.MappingsFile = "/etc/mappings.yaml"
	assert.Equal(t, "/etc/mappings.yaml", cfg.LegacyMappingsPath())
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, AuthModeDisabled, cfg.Mode)
	assert.False(t, cfg.AuthEnabled())
}

func TestAuthConfig_TokenMode(t *testing.T) {
	cfg := AuthConfig{Mode: AuthModeToken, Token: "secret"}
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.AuthEnabled())

	err := (&AuthConfig{Mode: AuthModeToken}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token is empty")

	assert.Error(t, (&AuthConfig{Mode: "magic", Token: "x"}).Validate())
}

func TestServeConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, ":8080", cfg.Serve.Address())

	cfg.Serve.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.Serve.Auth = AuthConfig{Mode: AuthModeToken}
	assert.Error(t, cfg.Validate(), "full config validate should catch auth error")
}
