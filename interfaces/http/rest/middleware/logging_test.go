package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_RecordsScopeTier(t *testing.T) {
	tests := []struct {
		name  string
		setup func(req *http.Request)
		tier  string
	}{
		{
			name:  "bearer token logs user tier",
			setup: func(req *http.Request) { req.Header.Set("Authorization", "Bearer whatever") },
			tier:  "user",
		},
		{
			name:  "session header logs session tier",
			setup: func(req *http.Request) { req.Header.Set(sessionHeader, "device-123") },
			tier:  "session",
		},
		{
			name:  "no credentials logs none",
			setup: func(req *http.Request) {},
			tier:  "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			handler := Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/cards", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			require.Equal(t, 1, logs.Len())
			fields := logs.All()[0].ContextMap()
			assert.Equal(t, tt.tier, fields["scope_tier"])
			assert.Equal(t, int64(http.StatusNoContent), fields["status"])
		})
	}
}
