package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// trafficLoggingMiddleware logs MCP traffic at debug level. Tool calls
// are summarized at board level (tool name plus the project or task
// being acted on) rather than dumping full payloads.
func trafficLoggingMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
				return next(ctx, method, req)
			}

			attrs := []any{
				"direction", direction,
				"method", method,
				"session_id", safeSessionID(req),
				"device_id", getDeviceID(ctx),
			}
			if tool, target := toolCallSummary(req); tool != "" {
				attrs = append(attrs, "tool", tool)
				if target != "" {
					attrs = append(attrs, "target", target)
				}
			}

			result, err := next(ctx, method, req)
			if strings.HasPrefix(method, "notifications/") {
				logger.Debug("mcp notification", attrs...)
				return result, err
			}

			switch {
			case err != nil:
				attrs = append(attrs, "error", err)
			case isToolError(result):
				attrs = append(attrs, "tool_error", true)
			}
			logger.Debug("mcp call", attrs...)

			return result, err
		}
	}
}

// toolCallSummary pulls the tool name and, when present, the project or
// task ID argument out of a tools/call request.
func toolCallSummary(req sdkmcp.Request) (tool, target string) {
	params, ok := safeParams(req).(*sdkmcp.CallToolParams)
	if !ok || params == nil {
		return "", ""
	}
	tool = params.Name

	var args map[string]any
	switch a := params.Arguments.(type) {
	case map[string]any:
		args = a
	case json.RawMessage:
		_ = json.Unmarshal(a, &args)
	}
	for _, key := range []string{"project_id", "task_id", "candidate_id"} {
		if v, ok := args[key].(string); ok && v != "" {
			return tool, v
		}
	}
	return tool, ""
}

func isToolError(result sdkmcp.Result) bool {
	r, ok := result.(*sdkmcp.CallToolResult)
	return ok && r != nil && r.IsError
}

func safeSessionID(req sdkmcp.Request) string {
	if req == nil {
		return ""
	}
	defer func() { recover() }()
	session := req.GetSession()
	if session == nil {
		return ""
	}
	defer func() { recover() }()
	return session.ID()
}

func safeParams(req sdkmcp.Request) any {
	if req == nil {
		return nil
	}
	defer func() { recover() }()
	return req.GetParams()
}
