package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantLevel zapcore.Level
	}{
		{name: "ok", status: http.StatusOK, body: `{"status":"ok"}`, wantLevel: zapcore.InfoLevel},
		{name: "created no body", status: http.StatusCreated, wantLevel: zapcore.InfoLevel},
		{name: "client error", status: http.StatusUnauthorized, body: `{}`, wantLevel: zapcore.WarnLevel},
		{name: "server error", status: http.StatusInternalServerError, body: `{}`, wantLevel: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			h := chimiddleware.RequestID(Logger(zap.New(core))(next))

			req := httptest.NewRequest(http.MethodGet, "/content/?page=2", nil)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, "request completed", entry.Message)
			assert.Equal(t, tt.wantLevel, entry.Level)

			fields := entry.ContextMap()
			assert.Equal(t, "GET", fields["method"])
			assert.Equal(t, "/content/", fields["path"])
			assert.Equal(t, "page=2", fields["query"])
			assert.Equal(t, int64(tt.status), fields["status"])
			assert.Equal(t, int64(len(tt.body)), fields["bytes"])
			assert.NotEmpty(t, fields["request_id"])
		})
	}
}

func TestLogger_DefaultsToOK(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hi"))
	})

	Logger(zap.New(core))(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(http.StatusOK), logs.All()[0].ContextMap()["status"])
}

func TestMaxBodyBytes(t *testing.T) {
	var readErr error
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	})

	tests := []struct {
		name    string
		limit   int64
		body    string
		wantErr bool
	}{
		{name: "under limit", limit: 8, body: "1234"},
		{name: "at limit", limit: 4, body: "1234"},
		{name: "over limit", limit: 4, body: "12345", wantErr: true},
		{name: "disabled", limit: 0, body: strings.Repeat("x", 1<<12)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readErr = nil
			req := httptest.NewRequest(http.MethodPost, "/account/", strings.NewReader(tt.body))
			MaxBodyBytes(tt.limit)(next).ServeHTTP(httptest.NewRecorder(), req)

			if !tt.wantErr {
				assert.NoError(t, readErr)
				return
			}
			var maxErr *http.MaxBytesError
			require.True(t, errors.As(readErr, &maxErr), "want MaxBytesError, got %v", readErr)
			assert.Equal(t, tt.limit, maxErr.Limit)
		})
	}
}
