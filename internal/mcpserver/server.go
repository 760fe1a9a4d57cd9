// Package mcpserver exposes the checker as Model Context Protocol tools over
// stdio, so editors and agents can ask whether a tree respects its contracts.
package mcpserver

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"layercheck/internal/checker"
	"layercheck/internal/config"
	"layercheck/internal/report"
)

type tools struct {
	logger *zap.Logger
	getenv func(string) string
}

// New returns an MCP server with the check_architecture and module_graph
// tools registered.
func New(version string, logger *zap.Logger) *server.MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &tools{logger: logger, getenv: os.Getenv}

	s := server.NewMCPServer("layercheck", version, server.WithToolCapabilities(false))

	checkTool := mcp.NewTool("check_architecture",
		mcp.WithDescription("Check a source tree against its import contracts and return the JSON report"),
		mcp.WithString("root",
			mcp.Required(),
			mcp.Description("Root directory of the source tree"),
		),
		mcp.WithString("config",
			mcp.Description("Contract file (default: <root>/.layercheck.yaml)"),
		),
	)
	s.AddTool(checkTool, t.checkArchitecture)

	graphTool := mcp.NewTool("module_graph",
		mcp.WithDescription("Return the module import graph of a source tree as JSON, with import cycles. The contract file is optional here."),
		mcp.WithString("root",
			mcp.Required(),
			mcp.Description("Root directory of the source tree"),
		),
		mcp.WithString("config",
			mcp.Description("Contract file (default: <root>/.layercheck.yaml)"),
		),
	)
	s.AddTool(graphTool, t.moduleGraph)

	return s
}

// Serve runs New's server on stdin/stdout until the client disconnects.
func Serve(version string, logger *zap.Logger) error {
	return server.ServeStdio(New(version, logger))
}

func (t *tools) checker(request mcp.CallToolRequest, contractsOptional bool) (*checker.Checker, error) {
	root, err := request.RequireString("root")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(config.Options{
		Root:       root,
		ConfigPath: request.GetString("config", ""),
		Format:     config.FormatJSON,

		ContractsOptional: contractsOptional,
	}, t.getenv)
	if err != nil {
		return nil, err
	}
	return checker.New(cfg, t.logger), nil
}

func (t *tools) checkArchitecture(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := t.checker(request, false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r, err := c.Check(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("check failed: %v", err)), nil
	}
	var buf bytes.Buffer
	if err := report.WriteJSON(&buf, r); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (t *tools) moduleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := t.checker(request, true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sr, err := c.Scan(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scan failed: %v", err)), nil
	}
	var buf bytes.Buffer
	if err := report.WriteGraph(&buf, sr.Graph, report.FormatJSON); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}
