package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/skillgate/internal"
	"github.com/starford/skillgate/internal/apperr"
	"github.com/starford/skillgate/internal/audit"
	"github.com/starford/skillgate/internal/render"
	pkgconfig "github.com/starford/skillgate/pkg/config"
)

var version = "dev"

func newApp(cmd *cli.Command) (*internal.App, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOrDefault(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if root := cmd.String("root"); root != "" {
		cfg.Corpus.Root = root
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	clock, err := clockFrom(cmd.String("timestamp"), os.Getenv("SOURCE_DATE_EPOCH"))
	if err != nil {
		return nil, err
	}
	if clock != nil {
		opts = append(opts, internal.WithClock(clock))
	}

	return internal.New(opts...)
}

// clockFrom returns a fixed clock from an RFC 3339 flag value or a
// SOURCE_DATE_EPOCH value, the flag taking precedence. Nil means wall time.
func clockFrom(timestamp, epoch string) (func() time.Time, error) {
	switch {
	case timestamp != "":
		ts, err := time.Parse(time.RFC3339, timestamp)
		if err != nil {
			return nil, fmt.Errorf("invalid --timestamp %q: %w", timestamp, err)
		}
		return func() time.Time { return ts }, nil
	case epoch != "":
		secs, err := strconv.ParseInt(strings.TrimSpace(epoch), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SOURCE_DATE_EPOCH %q: %w", epoch, err)
		}
		ts := time.Unix(secs, 0).UTC()
		return func() time.Time { return ts }, nil
	}
	return nil, nil
}

func format(cmd *cli.Command) (string, error) {
	return render.ParseFormat(cmd.String("format"))
}

func runAudit(ctx context.Context, cmd *cli.Command) error {
	f, err := format(cmd)
	if err != nil {
		return err
	}
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	if out := cmd.String("output"); out != "" {
		app.Config().Report.Output = out
	}

	if cmd.Bool("watch") {
		return app.Watch(ctx, func(res *audit.Result) error {
			return render.Report(cmd.Root().Writer, res, f)
		})
	}

	res, err := app.Audit(ctx)
	if err != nil {
		return err
	}
	if err := render.Report(cmd.Root().Writer, res, f); err != nil {
		return err
	}
	if !res.Report.Passed {
		return fmt.Errorf("%d errors, %d broken links, %d hub violations, %d orphans: %w",
			res.Report.Errors(), res.Report.BrokenLinks, res.Report.HubViolations, res.Report.Orphans,
			apperr.ErrGateFailed)
	}
	return nil
}

func runValidatePackage(_ context.Context, cmd *cli.Command) error {
	slug := cmd.Args().First()
	if slug == "" {
		return fmt.Errorf("validate-package: package slug is required")
	}
	f, err := format(cmd)
	if err != nil {
		return err
	}
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	pkg, vs, err := app.ValidatePackage(slug)
	if err != nil {
		return err
	}
	res := render.NewPackageResult(pkg, vs)
	if err := render.Package(cmd.Root().Writer, res, f); err != nil {
		return err
	}
	if !res.Passed {
		return fmt.Errorf("package %s: %w", slug, apperr.ErrGateFailed)
	}
	return nil
}

func runEstimateTokens(_ context.Context, cmd *cli.Command) error {
	p := cmd.Args().First()
	if p == "" {
		return fmt.Errorf("estimate-tokens: document path is required")
	}
	f, err := format(cmd)
	if err != nil {
		return err
	}
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	est, err := app.EstimateTokens(p)
	if err != nil {
		return err
	}
	return render.Tokens(cmd.Root().Writer, est, f)
}

func runListPackages(_ context.Context, cmd *cli.Command) error {
	f, err := format(cmd)
	if err != nil {
		return err
	}
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	pkgs, err := app.ListPackages()
	if err != nil {
		return err
	}
	return render.Packages(cmd.Root().Writer, pkgs, f)
}

func runLegacyMap(_ context.Context, cmd *cli.Command) error {
	id := strings.Join(cmd.Args().Slice(), " ")
	if id == "" {
		return fmt.Errorf("legacy-map: identifier is required")
	}
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	slugs, err := app.MapLegacy(id)
	if err != nil {
		return err
	}
	for _, s := range slugs {
		_, _ = fmt.Fprintln(cmd.Root().Writer, s)
	}
	return nil
}

func runMCP(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	return app.ServeMCP()
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	if p := cmd.String("port"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid --port %q", p)
		}
		app.Config().Serve.Port = port
	}
	return app.Serve(ctx)
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: " + strings.Join(render.Formats, " or "),
		Value:   render.FormatJSON,
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "skillgate",
		Usage:   "Audit a Markdown documentation corpus and validate skill packages",
		Version: version,
		Writer:  os.Stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("SKILLGATE_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Corpus root, overrides corpus.root",
				Sources: cli.EnvVars("SKILLGATE_CORPUS_ROOT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "audit",
				Usage: "Run the full corpus audit and emit the report",
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Also write the JSON report to this file",
					},
					&cli.StringFlag{
						Name:  "timestamp",
						Usage: "Fixed RFC 3339 report timestamp (default: SOURCE_DATE_EPOCH or now)",
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Re-run the audit whenever the corpus changes",
					},
				},
				Action: runAudit,
			},
			{
				Name:      "validate-package",
				Usage:     "Validate one skill package",
				ArgsUsage: "<slug>",
				Flags:     []cli.Flag{formatFlag()},
				Action:    runValidatePackage,
			},
			{
				Name:      "estimate-tokens",
				Usage:     "Estimate per-tier token counts of a document",
				ArgsUsage: "<path>",
				Flags:     []cli.Flag{formatFlag()},
				Action:    runEstimateTokens,
			},
			{
				Name:   "list-packages",
				Usage:  "List the skill packages in the corpus",
				Flags:  []cli.Flag{formatFlag()},
				Action: runListPackages,
			},
			{
				Name:      "legacy-map",
				Usage:     "Map a legacy directive to package slugs",
				ArgsUsage: "<identifier>",
				Action:    runLegacyMap,
			},
			{
				Name:  "serve",
				Usage: "Serve the audit over HTTP, re-auditing on every corpus change",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "Listen port, overrides serve.port",
					},
				},
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the audit tools over MCP stdio",
				Action: runMCP,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		stop()
		if errors.Is(err, apperr.ErrGateFailed) {
			slog.Warn("gate failed", slog.String("error", err.Error()))
		} else {
			slog.Error("application error", slog.String("error", err.Error()))
		}
		os.Exit(1)
	}
}
