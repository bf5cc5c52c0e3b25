// Package internal wires configuration, logging and the audit engine into
// the application facade used by the command line and the MCP server.
package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/starford/skillgate/internal/apperr"
	"github.com/starford/skillgate/internal/audit"
	"github.com/starford/skillgate/internal/legacy"
	"github.com/starford/skillgate/internal/mcpserver"
	"github.com/starford/skillgate/internal/models"
	"github.com/starford/skillgate/internal/storage"
	"github.com/starford/skillgate/internal/tokens"
	"github.com/starford/skillgate/internal/watch"
)

// App is the configured application.
type App struct {
	cfg     *Config
	logger  *slog.Logger
	store   *storage.FS
	engine  *audit.Engine
	clock   func() time.Time
	version string
}

var _ mcpserver.Service = (*App)(nil)

// New builds the application from the given options.
func New(opts ...Option) (*App, error) {
	a := &application{}
	for _, opt := range opts {
		opt(a)
	}

	if a.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := a.config

	logger := a.logger
	if logger == nil {
		out := a.logOutput
		if out == nil {
			out = os.Stderr
		}
		logger = newLogger(out, cfg.App)
		slog.SetDefault(logger)
	}

	clock := a.clock
	if clock == nil {
		clock = time.Now
	}
	version := a.version
	if version == "" {
		version = "dev"
	}

	logger.Debug("Configuration loaded",
		slog.String("corpus_root", cfg.Corpus.Root),
		slog.String("package_root", cfg.Packages.Root),
		slog.Int("workers", cfg.Corpus.Workers),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.Corpus.Root, cfg.Corpus.Include, cfg.Corpus.Exclude)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w: %w", apperr.ErrCorpusUnreadable, err)
	}

	est := tokens.CharRatio(cfg.Tokens.CharsPerToken)
	return &App{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		engine:  audit.New(store, cfg.AuditSettings(), est, logger),
		clock:   clock,
		version: version,
	}, nil
}

func newLogger(w io.Writer, cfg ApplicationConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Config returns the application configuration.
func (a *App) Config() *Config { return a.cfg }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Audit runs the full corpus audit and writes the report file when one is
// configured.
func (a *App) Audit(ctx context.Context) (*audit.Result, error) {
	res, err := a.engine.Run(ctx, a.clock())
	if err != nil {
		return nil, err
	}
	if out := a.cfg.Report.Output; out != "" {
		if err := res.Report.WriteFile(out); err != nil {
			return nil, fmt.Errorf("write report: %w", err)
		}
		a.logger.Info("Report written", slog.String("path", out))
	}
	return res, nil
}

// ValidatePackage validates the package with slug.
func (a *App) ValidatePackage(slug string) (models.SkillPackage, []models.Violation, error) {
	return a.engine.ValidatePackage(slug)
}

// EstimateTokens returns the token breakdown of the document at p.
func (a *App) EstimateTokens(p string) (audit.TokenEstimate, error) {
	return a.engine.EstimateTokens(p)
}

// ListPackages returns every package in the corpus.
func (a *App) ListPackages() ([]models.SkillPackage, error) {
	return a.engine.ListPackages()
}

// MapLegacy resolves a legacy directive to package slugs. The mapping file
// is read on every call.
func (a *App) MapLegacy(identifier string) ([]string, error) {
	table, err := legacy.Load(a.cfg.LegacyMappingsPath())
	if err != nil {
		return nil, err
	}
	return table.Resolve(identifier)
}

// ReadDocument returns the raw content of a selected corpus document.
func (a *App) ReadDocument(p string) ([]byte, error) {
	return a.engine.ReadDocument(p)
}

// Watch runs the audit now and after every change to a selected corpus
// file, passing each result to onResult, until ctx is cancelled.
func (a *App) Watch(ctx context.Context, onResult func(*audit.Result) error) error {
	return watch.Watch(ctx, a.store.Root(), a.store.Selected, watch.DefaultDebounce, a.logger,
		func(ctx context.Context) error {
			res, err := a.Audit(ctx)
			if err != nil {
				return err
			}
			r := res.Report
			a.logger.Info("Audit finished",
				slog.Bool("passed", r.Passed),
				slog.Int("broken_links", r.BrokenLinks),
				slog.Int("hub_violations", r.HubViolations),
				slog.Int("orphans", r.Orphans),
				slog.Int("errors", r.Errors()))
			return onResult(res)
		})
}

// ServeMCP serves the MCP tools over stdio until the client disconnects.
func (a *App) ServeMCP() error {
	a.logger.Info("Starting MCP server", slog.String("version", a.version))
	return mcpserver.New(a, a.version).ServeStdio()
}
