package core

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/euicc/internal/logging"
)

func TestClientIPContext(t *testing.T) {
	ctx := ContextWithClientIP(context.Background(), "10.0.0.7")
	assert.Equal(t, "10.0.0.7", ClientIPFromContext(ctx))
	assert.Empty(t, ClientIPFromContext(context.Background()))
}

func TestAuditLogger_ClientIP(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "info", "json"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := ContextWithClientIP(context.Background(), "10.0.0.7")
	auditLogger(ctx).Info("profile deleted", "id", "p1")
	assert.Contains(t, buf.String(), `"client_ip":"10.0.0.7"`)

	buf.Reset()
	auditLogger(context.Background()).Info("profile deleted", "id", "p1")
	assert.NotContains(t, buf.String(), "client_ip")
}
