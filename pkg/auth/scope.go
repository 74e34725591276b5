package auth

import (
	"context"

	apperrors "clarityos-backend/pkg/errors"
)

// Scope identifies whose records a request operates on: either an
// authenticated user or a single anonymous device session. Exactly one
// of the two identifiers is set.
type Scope struct {
	UserID    string
	SessionID string
}

// Authenticated reports whether the scope belongs to a signed-in user.
func (s Scope) Authenticated() bool {
	return s.UserID != ""
}

// Key returns a stable identifier usable for rate limiting and
// per-conversation locking.
func (s Scope) Key() string {
	if s.Authenticated() {
		return "user:" + s.UserID
	}
	return "session:" + s.SessionID
}

type scopeContextKey struct{}

// WithScope stores the request scope on the context.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// GetScopeFromContext extracts the request scope set by the auth middleware.
func GetScopeFromContext(ctx context.Context) (Scope, error) {
	scope, ok := ctx.Value(scopeContextKey{}).(Scope)
	if !ok || (scope.UserID == "" && scope.SessionID == "") {
		return Scope{}, apperrors.NewUnauthorizedError("no user or session identity on request")
	}
	return scope, nil
}
