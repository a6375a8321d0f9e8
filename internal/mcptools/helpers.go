// Package mcptools exposes scorecard engine operations as MCP tools.
//
// Every tool is a struct holding the engine, with Definition returning the
// mcp.Tool schema and Handle serving the call. Results are JSON text.
package mcptools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"scorecard/internal/engine"
	"scorecard/internal/repo"
)

// intArg extracts an integer argument, returning defaultVal when the key is
// missing or not a number (JSON numbers arrive as float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

func int64Arg(req mcp.CallToolRequest, key string) (int64, bool) {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return 0, false
	}
	return int64(v), true
}

func floatArg(req mcp.CallToolRequest, key string, defaultVal float64) float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return v
}

func objectArg(req mcp.CallToolRequest, key string) map[string]any {
	v, _ := req.GetArguments()[key].(map[string]any)
	return v
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// failure turns an engine error into a tool error result.
func failure(what string, err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("%s not found", what)), nil
	case errors.Is(err, engine.ErrInvalid):
		return mcp.NewToolResultError(err.Error()), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", what, err)), nil
	}
}
