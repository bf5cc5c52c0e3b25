// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the audit and package tools to an AI assistant via stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/skillgate/internal/apperr"
	"github.com/starford/skillgate/internal/audit"
	"github.com/starford/skillgate/internal/models"
	"github.com/starford/skillgate/internal/render"
)

// ContractURI identifies the package format resource.
const ContractURI = "skillgate://package-format"

// Service is the set of operations the server exposes.
type Service interface {
	Audit(ctx context.Context) (*audit.Result, error)
	ValidatePackage(slug string) (models.SkillPackage, []models.Violation, error)
	EstimateTokens(path string) (audit.TokenEstimate, error)
	MapLegacy(identifier string) ([]string, error)
	ListPackages() ([]models.SkillPackage, error)
	ReadDocument(path string) ([]byte, error)
}

// Server wraps the MCP server with skillgate tools.
type Server struct {
	mcp *server.MCPServer
	svc Service
}

// New creates a new MCP server with all tools registered.
func New(svc Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"skillgate",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("audit_corpus",
		mcp.WithDescription("Run the full corpus audit (broken links, hub coverage, orphans, "+
			"package structure, dependency cycles) and return the JSON report."),
	), s.auditCorpus)

	s.mcp.AddTool(mcp.NewTool("validate_package",
		mcp.WithDescription("Validate one skill package: header fields, tier headings, "+
			"tier token budgets and declared resources."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Package directory name (e.g. zero-trust)")),
	), s.validatePackage)

	s.mcp.AddTool(mcp.NewTool("estimate_tokens",
		mcp.WithDescription("Estimate tokens per tier for a corpus document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the corpus root (e.g. skills/kit/SKILL.md)")),
	), s.estimateTokens)

	s.mcp.AddTool(mcp.NewTool("map_legacy_directive",
		mcp.WithDescription("Map a legacy load directive (product:api, CS:python, SEC:*, "+
			"[a + b]) to package slugs. Unknown identifiers return an error, never a guess."),
		mcp.WithString("identifier", mcp.Required(), mcp.Description("Legacy identifier or @load directive")),
	), s.mapLegacy)

	s.mcp.AddTool(mcp.NewTool("list_packages",
		mcp.WithDescription("List every skill package with its name, description and dependencies."),
	), s.listPackages)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the raw Markdown of a corpus document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the corpus root")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("get_package_contract",
		mcp.WithDescription("Returns the skill package format contract. "+
			"Call this before writing or restructuring a package."),
	), s.getPackageContract)

	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Package Format Contract",
			mcp.WithResourceDescription("Header, tier and declared-link rules every skill package must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) auditCorpus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Audit(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := res.Report.Marshal()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) validatePackage(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pkg, vs, err := s.svc.ValidatePackage(slug)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(render.NewPackageResult(pkg, vs))
}

func (s *Server) estimateTokens(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	est, err := s.svc.EstimateTokens(path)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(est)
}

func (s *Server) mapLegacy(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slugs, err := s.svc.MapLegacy(id)
	if errors.Is(err, apperr.ErrNoMapping) {
		return mcp.NewToolResultError(fmt.Sprintf("no mapping: %s", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strings.Join(slugs, "\n")), nil
}

func (s *Server) listPackages(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pkgs, err := s.svc.ListPackages()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(pkgs) == 0 {
		return mcp.NewToolResultText("no packages found"), nil
	}
	return jsonResult(pkgs)
}

func (s *Server) readDocument(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.svc.ReadDocument(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) getPackageContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PackageFormatContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     PackageFormatContract,
		},
	}, nil
}
