package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/gitpulse/core"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// requestConfig clones the base config and applies the scope, window and limit arguments.
func (h *toolHandler) requestConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()

	if s := request.GetString("scope", ""); strings.TrimSpace(s) != "" {
		cfg.Scope = contract.ParseScope(s)
	}

	if w := strings.TrimSpace(request.GetString("window", "")); w != "" {
		end := time.Now()
		if strings.EqualFold(w, "all") {
			cfg = cfg.CloneWithTimeWindow(time.Time{}, end)
		} else {
			lookback, err := contract.ParseLookbackDuration(w)
			if err != nil {
				return nil, fmt.Errorf("invalid window: %w", err)
			}
			cfg = cfg.CloneWithTimeWindow(end.Add(-lookback), end)
		}
	}

	if _, ok := request.GetArguments()["limit"]; ok {
		l := request.GetInt("limit", 0)
		if l <= 0 || l > contract.MaxResultLimit {
			return nil, fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", contract.MaxResultLimit, l)
		}
		cfg.ResultLimit = l
	}
	return cfg, nil
}

// jsonResult wraps a computed result, or its error, as tool output.
func jsonResult(v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleResolveIdentities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(core.GetIdentitiesResults(core.WithSuppressHeader(ctx), cfg, h.mgr))
}

func (h *toolHandler) handleGetLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(core.GetLeaderboardResults(core.WithSuppressHeader(ctx), cfg, h.mgr))
}

func (h *toolHandler) handleGetCapacity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(core.GetCapacityResults(core.WithSuppressHeader(ctx), cfg, h.mgr))
}

func (h *toolHandler) handleGetBurnout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(core.GetBurnoutResults(core.WithSuppressHeader(ctx), cfg, h.mgr))
}

func (h *toolHandler) handleGetDORA(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(core.GetDORAResults(core.WithSuppressHeader(ctx), cfg, h.mgr))
}

func (h *toolHandler) handleGetBottlenecks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(core.GetBottlenecksResults(core.WithSuppressHeader(ctx), cfg, h.mgr))
}
