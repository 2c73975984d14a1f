package slogx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/identity/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	require.Equal(t, slog.Default(), slogx.FromContext(context.Background()))
}

func TestWithPinsAttributes(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := slogx.WithContext(context.Background(), base)
	ctx = slogx.With(ctx, "account_id", "acc-1")
	slogx.FromContext(ctx).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "acc-1", line["account_id"])
}

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	h := slogx.HTTPMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slogx.FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("echoes provided request id", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/livez", nil)
		req.Header.Set(slogx.RequestIDHeader, "req-123")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusTeapot, rec.Code)
		require.Equal(t, "req-123", rec.Header().Get(slogx.RequestIDHeader))
		require.Contains(t, buf.String(), `"req_id":"req-123"`)
		require.Contains(t, buf.String(), `"status":418`)
	})

	t.Run("generates a request id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
		require.Len(t, rec.Header().Get(slogx.RequestIDHeader), 26)
	})
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, slogx.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, slogx.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, slogx.ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, slogx.ParseLevel("nonsense"))
}

func TestNewWritesServiceAttributes(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	l := slogx.New(slogx.Config{Service: "identity", Version: "v1", Env: "test", Output: &buf})
	l.Info("ready")

	require.Contains(t, buf.String(), `"service":"identity"`)
	require.Contains(t, buf.String(), `"env":"test"`)
}
