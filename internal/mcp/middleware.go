package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const deviceIDKey contextKey = iota

// getDeviceID extracts the calling device's self-reported ID from context.
func getDeviceID(ctx context.Context) string {
	v, _ := ctx.Value(deviceIDKey).(string)
	return v
}

// authMiddleware enforces a shared bearer token on HTTP transports.
func authMiddleware(token string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Skip auth for protocol methods
			if method == "initialize" || method == "ping" {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}

			auth := extra.Header.Get("Authorization")
			got := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if got == "" {
				return nil, fmt.Errorf("unauthorized: missing bearer token")
			}
			if got != token {
				return nil, fmt.Errorf("unauthorized: invalid bearer token")
			}

			return next(ctx, method, req)
		}
	}
}

// deviceMiddleware extracts the device ID from the X-Device-Id header
// (HTTP) or request metadata (stdio) so traffic from different devices
// can be told apart in the logs.
func deviceMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			var deviceID string

			extra := req.GetExtra()
			if extra != nil && extra.Header != nil {
				deviceID = extra.Header.Get("X-Device-Id")
			}

			// Note: Some notifications (like "initialized") have nil params,
			// so we must check carefully to avoid nil pointer dereference.
			if deviceID == "" {
				if params := req.GetParams(); params != nil {
					// Use defer/recover to safely handle cases where GetMeta
					// is called on a nil underlying value (SDK quirk)
					func() {
						defer func() { recover() }()
						if meta := params.GetMeta(); meta != nil {
							if id, ok := meta["device_id"].(string); ok {
								deviceID = id
							}
						}
					}()
				}
			}

			if deviceID != "" {
				ctx = context.WithValue(ctx, deviceIDKey, deviceID)
			}

			return next(ctx, method, req)
		}
	}
}
