package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Logger logs one line per request once it completes. The scope tier
// is derived from the credential headers so anonymous and account
// traffic can be told apart without parsing tokens.
func Logger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("scope_tier", scopeTier(r)),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
			)
		})
	}
}

// scopeTier classifies the request's credentials: "user" for bearer
// tokens, "session" for the anonymous session header, "none" otherwise.
func scopeTier(r *http.Request) string {
	switch {
	case r.Header.Get("Authorization") != "":
		return "user"
	case r.Header.Get(sessionHeader) != "":
		return "session"
	default:
		return "none"
	}
}
