package middleware

import (
	"net/http"
	"strings"

	"clarityos-backend/pkg/auth"
	"clarityos-backend/pkg/common"
	apperrors "clarityos-backend/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// sessionHeader carries the anonymous session id for clients that have
// not signed in yet.
const sessionHeader = "X-Session-ID"

// ScopeConfig configures scope resolution.
type ScopeConfig struct {
	// JWTSecret verifies supabase-issued HS256 access tokens.
	JWTSecret string
	// Issuer, when set, must match the token's iss claim.
	Issuer string
}

// ResolveScope attaches the request scope to the context. A valid
// bearer token yields an authenticated user scope; otherwise the
// X-Session-ID header yields an anonymous session scope. Requests with
// neither, or with an invalid token, are rejected.
func ResolveScope(cfg ScopeConfig, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)

			if token != "" {
				userID, err := validateToken(token, cfg)
				if err != nil {
					logger.Warn("rejected bearer token",
						zap.String("path", r.URL.Path), zap.Error(err))
					common.RespondAppError(w, apperrors.NewUnauthorizedError("invalid access token"))
					return
				}
				ctx := auth.WithScope(r.Context(), auth.Scope{UserID: userID})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			sessionID := strings.TrimSpace(r.Header.Get(sessionHeader))
			if sessionID == "" {
				common.RespondAppError(w, apperrors.NewUnauthorizedError("missing credentials: provide a bearer token or "+sessionHeader))
				return
			}

			ctx := auth.WithScope(r.Context(), auth.Scope{SessionID: sessionID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous scopes. Used on endpoints that only
// make sense for a signed-in account, like migration.
func RequireUser() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, err := auth.GetScopeFromContext(r.Context())
			if err != nil || !scope.Authenticated() {
				common.RespondAppError(w, apperrors.NewUnauthorizedError("sign in required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// validateToken verifies the HS256 signature and standard claims and
// returns the subject.
func validateToken(tokenString string, cfg ScopeConfig) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return "", err
	}

	if claims.Subject == "" {
		return "", jwt.ErrTokenInvalidSubject
	}
	return claims.Subject, nil
}
