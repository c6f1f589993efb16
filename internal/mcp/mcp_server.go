// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// scopeOptions are the arguments shared by every tool.
func scopeOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("scope", mcp.Description("Comma separated owner/name repositories (defaults to every synced repository).")),
		mcp.WithString("window", mcp.Description("Lookback window ending now (e.g., '90 days', '6 months', '720h') or 'all'.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	}
}

func newTool(name, description string) mcp.Tool {
	return mcp.NewTool(name, append([]mcp.ToolOption{mcp.WithDescription(description)}, scopeOptions()...)...)
}

// NewMCPServer initializes and configures the gitpulse MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"gitpulse Team Metrics Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: resolve_identities ---
	s.AddTool(newTool("resolve_identities",
		"Group commit author names and emails into contributor identities, matched to registered users where possible."),
		h.handleResolveIdentities)

	// --- 2. Tool: get_leaderboard ---
	s.AddTool(newTool("get_leaderboard",
		"Rank contributors by performance, with code quality, effort, velocity and consistency scores."),
		h.handleGetLeaderboard)

	// --- 3. Tool: get_capacity ---
	s.AddTool(newTool("get_capacity",
		"Classify each contributor as overloaded, optimal or underutilized and forecast sprint risk."),
		h.handleGetCapacity)

	// --- 4. Tool: get_burnout ---
	s.AddTool(newTool("get_burnout",
		"Assess burnout risk from late-night commits, weekend commits and stress keywords."),
		h.handleGetBurnout)

	// --- 5. Tool: get_dora ---
	s.AddTool(newTool("get_dora",
		"Compute deployment frequency, lead time, change failure rate and mean time to restore."),
		h.handleGetDORA)

	// --- 6. Tool: get_bottlenecks ---
	s.AddTool(newTool("get_bottlenecks",
		"List open pull requests that are stuck without review, inactive or churning through reviews."),
		h.handleGetBottlenecks)

	return s
}

// StartMCPServer starts the gitpulse MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
