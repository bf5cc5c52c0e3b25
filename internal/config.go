package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/starford/skillgate/internal/audit"
	"github.com/starford/skillgate/internal/models"
	"github.com/starford/skillgate/internal/policy"
	"github.com/starford/skillgate/internal/report"
	"github.com/starford/skillgate/internal/validate"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Corpus   CorpusConfig      `yaml:"corpus"`
	Links    LinksConfig       `yaml:"links"`
	Packages PackagesConfig    `yaml:"packages"`
	Tokens   TokensConfig      `yaml:"tokens"`
	Gates    GatesConfig       `yaml:"gates"`
	Severity SeverityConfig    `yaml:"severity"`
	Legacy   LegacyConfig      `yaml:"legacy"`
	Report   ReportConfig      `yaml:"report"`
	Serve    ServeConfig       `yaml:"serve"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Corpus, &c.Links, &c.Packages, &c.Tokens, &c.Gates, c.Severity, &c.Serve,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatJSON
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	)
}

// CorpusConfig selects the documents to audit.
type CorpusConfig struct {
	Root    string   `yaml:"root"`
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	Workers int      `yaml:"workers"`
}

// Validate validates the corpus configuration.
func (c *CorpusConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Include, validation.Each(validation.By(globRule))),
		validation.Field(&c.Exclude, validation.Each(validation.By(globRule))),
		validation.Field(&c.Workers, validation.Required, validation.Min(1)),
	)
}

// LinksConfig holds the linking policy.
type LinksConfig struct {
	Roots        []string         `yaml:"roots"`
	Hubs         []policy.HubRule `yaml:"hubs"`
	HubExempt    []string         `yaml:"hub_exempt"`
	OrphanExempt []string         `yaml:"orphan_exempt"`
}

// Validate validates the links configuration.
func (c *LinksConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Roots, validation.Each(validation.Required)),
		validation.Field(&c.HubExempt, validation.Each(validation.Required)),
		validation.Field(&c.OrphanExempt, validation.Each(validation.Required)),
	); err != nil {
		return fmt.Errorf("links: %w", err)
	}
	for i, rule := range c.Hubs {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("links: hubs[%d]: %w", i, err)
		}
	}
	return nil
}

// PackagesConfig describes where packages live and what they must contain.
type PackagesConfig struct {
	Root                 string       `yaml:"root"`
	FileName             string       `yaml:"file_name"`
	NameMaxLength        int          `yaml:"name_max_length"`
	DescriptionMaxLength int          `yaml:"description_max_length"`
	DescriptionMinLength int          `yaml:"description_min_length"`
	DependencyFields     []string     `yaml:"dependency_fields"`
	Tiers                []TierConfig `yaml:"tiers"`
}

// Validate validates the packages configuration.
func (c *PackagesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.FileName, validation.Required),
		validation.Field(&c.NameMaxLength, validation.Min(0)),
		validation.Field(&c.DescriptionMaxLength, validation.Min(0)),
		validation.Field(&c.DescriptionMinLength, validation.Min(0)),
		validation.Field(&c.DependencyFields, validation.Each(validation.In("requires", "related"))),
		validation.Field(&c.Tiers),
	)
}

// Rules converts the configuration into validator rules.
func (c *PackagesConfig) Rules() validate.Rules {
	r := validate.Rules{
		NameMaxLength: c.NameMaxLength,
		DescMinLength: c.DescriptionMinLength,
		DescMaxLength: c.DescriptionMaxLength,
	}
	for _, t := range c.Tiers {
		r.Tiers = append(r.Tiers, validate.Tier{
			ID:               models.TierID(t.ID),
			Heading:          t.Heading,
			RequiredHeadings: t.RequiredHeadings,
			TokenBudget:      t.TokenBudget,
			AllowDuplicates:  t.AllowDuplicates,
		})
	}
	return r
}

// TierConfig describes one body tier.
type TierConfig struct {
	ID               string   `yaml:"id"`
	Heading          string   `yaml:"heading"`
	RequiredHeadings []string `yaml:"required_headings"`
	TokenBudget      int      `yaml:"token_budget"`
	AllowDuplicates  bool     `yaml:"allow_duplicates"`
}

// Validate validates the tier configuration.
func (c TierConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Heading, validation.Required),
		validation.Field(&c.TokenBudget, validation.Required, validation.Min(1)),
	)
}

// TokensConfig configures the token estimator.
type TokensConfig struct {
	CharsPerToken int `yaml:"chars_per_token"`
}

// Validate validates the tokens configuration.
func (c *TokensConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CharsPerToken, validation.Required, validation.Min(1)),
	)
}

// GatesConfig holds the count ceilings of a passing audit.
type GatesConfig struct {
	MaxBrokenLinks   int `yaml:"max_broken_links"`
	MaxHubViolations int `yaml:"max_hub_violations"`
	MaxOrphans       int `yaml:"max_orphans"`
}

// Validate validates the gates configuration.
func (c *GatesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxBrokenLinks, validation.Min(0)),
		validation.Field(&c.MaxHubViolations, validation.Min(0)),
		validation.Field(&c.MaxOrphans, validation.Min(0)),
	)
}

// SeverityConfig overrides the default severity per violation kind.
type SeverityConfig map[string]string

// Validate checks every kind and severity name.
func (c SeverityConfig) Validate() error {
	kinds := make([]string, 0, len(c))
	for k := range c {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		if _, err := models.ParseKind(k); err != nil {
			return fmt.Errorf("severity: %w", err)
		}
		if err := validation.Validate(c[k],
			validation.In(string(models.SeverityError), string(models.SeverityWarning)),
		); err != nil {
			return fmt.Errorf("severity: %s: %w", k, err)
		}
	}
	return nil
}

// Policy converts the overrides into a report policy.
func (c SeverityConfig) Policy() report.Policy {
	p := report.Policy{SeverityOverrides: make(map[models.Kind]models.Severity, len(c))}
	for k, s := range c {
		p.SeverityOverrides[models.Kind(k)] = models.Severity(s)
	}
	return p
}

// LegacyConfig locates the legacy directive mappings.
type LegacyConfig struct {
	// MappingsFile is relative to the corpus root.
	MappingsFile string `yaml:"mappings_file"`
}

// ReportConfig controls report output.
type ReportConfig struct {
	// Output is a file the report is also written to; empty means stdout only.
	Output string `yaml:"output"`
}

// ServeConfig configures the HTTP API started by the serve command.
type ServeConfig struct {
	Port int        `yaml:"port"`
	Auth AuthConfig `yaml:"auth"`
}

// Address returns the HTTP listen address.
func (c *ServeConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the serve configuration.
func (c *ServeConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// AuthConfig holds API authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication, for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled reports whether Bearer token auth is enforced.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// AuditSettings derives the engine settings.
func (c *Config) AuditSettings() audit.Settings {
	return audit.Settings{
		Roots:            c.Links.Roots,
		HubRules:         c.Links.Hubs,
		HubExempt:        c.Links.HubExempt,
		OrphanExempt:     c.Links.OrphanExempt,
		PackageRoot:      c.Packages.Root,
		PackageFile:      c.Packages.FileName,
		DependencyFields: c.Packages.DependencyFields,
		Validation:       c.Packages.Rules(),
		Policy:           c.Severity.Policy(),
		Gates: report.Gates{
			MaxBrokenLinks:   c.Gates.MaxBrokenLinks,
			MaxHubViolations: c.Gates.MaxHubViolations,
			MaxOrphans:       c.Gates.MaxOrphans,
		},
		Workers: c.Corpus.Workers,
	}
}

// LegacyMappingsPath returns the mappings file path on disk.
func (c *Config) LegacyMappingsPath() string {
	if filepath.IsAbs(c.Legacy.MappingsFile) {
		return c.Legacy.MappingsFile
	}
	return filepath.Join(c.Corpus.Root, filepath.FromSlash(c.Legacy.MappingsFile))
}

func globRule(value interface{}) error {
	s, _ := value.(string)
	if !doublestar.ValidatePattern(s) {
		return fmt.Errorf("invalid glob pattern %q", s)
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
		},
		Corpus: CorpusConfig{
			Root:    ".",
			Include: []string{"**/*.md"},
			Exclude: []string{".git/**", "node_modules/**", "reports/generated/**"},
			Workers: 8,
		},
		Links: LinksConfig{
			Roots: []string{"README.md"},
		},
		Packages: PackagesConfig{
			Root:                 "skills",
			FileName:             "SKILL.md",
			NameMaxLength:        64,
			DescriptionMaxLength: 1024,
			DescriptionMinLength: 20,
			DependencyFields:     []string{"requires", "related"},
			Tiers: []TierConfig{
				{
					ID:               "summary",
					Heading:          "Level 1: Quick Start",
					RequiredHeadings: []string{"Core Principles", "Essential Checklist"},
					TokenBudget:      2000,
				},
				{
					ID:          "implementation",
					Heading:     "Level 2: Implementation",
					TokenBudget: 5000,
				},
				{
					ID:              "reference",
					Heading:         "Level 3: Mastery",
					TokenBudget:     8000,
					AllowDuplicates: true,
				},
			},
		},
		Tokens: TokensConfig{
			CharsPerToken: 4,
		},
		Gates: GatesConfig{
			MaxBrokenLinks:   0,
			MaxHubViolations: 0,
			MaxOrphans:       5,
		},
		Legacy: LegacyConfig{
			MappingsFile: "skills/legacy-bridge/resources/legacy-mappings.yaml",
		},
		Serve: ServeConfig{
			Port: 8080,
			Auth: AuthConfig{Mode: AuthModeDisabled},
		},
	}
}
