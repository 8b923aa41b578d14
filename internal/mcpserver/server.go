// Package mcpserver exposes the architecture audit as an MCP tool over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Someblueman/archgate/internal/audit"
)

const toolAuditArchitecture = "audit_architecture"

// AuditResult is the JSON payload returned by the audit tool.
type AuditResult struct {
	Passed bool `json:"passed"`
	*audit.Report
}

type handler struct {
	base   audit.Config
	logger *slog.Logger
}

// New returns an MCP server whose audit tool starts from base for every
// call. Per-call arguments override root, config file, threshold and
// language.
func New(base audit.Config, logger *slog.Logger, version string) *server.MCPServer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &handler{base: base, logger: logger}

	s := server.NewMCPServer(
		"archgate",
		version,
		server.WithToolCapabilities(false),
	)

	auditTool := mcp.NewTool(toolAuditArchitecture,
		mcp.WithDescription("Audit a source tree for layering, size and naming violations"),
		mcp.WithString("root",
			mcp.Description("Directory to scan (default: the server's configured root)"),
		),
		mcp.WithString("config",
			mcp.Description("Path to an archgate YAML config file applied before other arguments"),
		),
		mcp.WithString("language",
			mcp.Description("Grammar to parse with: python, typescript or rust"),
		),
		mcp.WithNumber("outlier_threshold",
			mcp.Description("Standard deviations above the mean that flag a component"),
		),
		mcp.WithBoolean("skip_unparsable",
			mcp.Description("Report unparsable files as findings instead of failing"),
		),
	)
	s.AddTool(auditTool, h.auditArchitecture)
	return s
}

// Serve runs s on stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func (h *handler) config(request mcp.CallToolRequest) (audit.Config, error) {
	cfg := h.base
	if path := request.GetString("config", ""); path != "" {
		var err error
		if cfg, err = audit.LoadConfigFile(path, cfg); err != nil {
			return cfg, err
		}
	}
	cfg.Root = request.GetString("root", cfg.Root)
	cfg.Language = request.GetString("language", cfg.Language)
	cfg.OutlierStdDevThreshold = request.GetFloat("outlier_threshold", cfg.OutlierStdDevThreshold)
	cfg.SkipUnparsable = request.GetBool("skip_unparsable", cfg.SkipUnparsable)
	return cfg, cfg.Validate()
}

func (h *handler) auditArchitecture(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.config(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid configuration: %v", err)), nil
	}

	report, err := audit.NewEngine(cfg, h.logger).Run(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("audit failed: %v", err)), nil
	}

	jsonData, err := json.Marshal(AuditResult{Passed: report.Passed(), Report: report})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal report: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
