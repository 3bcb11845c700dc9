package core

import (
	"context"
	"log/slog"

	"github.com/JonMunkholm/euicc/internal/logging"
)

type contextKey string

const ctxKeyClientIP contextKey = "client_ip"

// ContextWithClientIP records the caller's address for mutation logs.
func ContextWithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyClientIP, ip)
}

// ClientIPFromContext returns the address stored by ContextWithClientIP.
func ClientIPFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyClientIP).(string); ok {
		return v
	}
	return ""
}

// auditLogger is the request logger plus the client address, when known.
func auditLogger(ctx context.Context) *slog.Logger {
	if ip := ClientIPFromContext(ctx); ip != "" {
		return logging.WithFields(ctx, "client_ip", ip)
	}
	return logging.FromContext(ctx)
}
