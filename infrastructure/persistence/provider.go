// Package persistence wires the two storage tiers together: the local
// on-device store for anonymous sessions and the supabase-backed remote
// store for authenticated users.
package persistence

import (
	"clarityos-backend/application/ports"
	"clarityos-backend/infrastructure/persistence/supabase"
	"clarityos-backend/pkg/auth"

	"go.uber.org/zap"
)

// TierProvider selects the persistence tier for a request scope:
// authenticated scopes get the remote tier, anonymous sessions the
// local tier. When the remote tier is not configured (development
// without supabase credentials) authenticated users degrade to local.
type TierProvider struct {
	local  ports.LocalStore
	remote *supabase.Remote
	logger *zap.Logger
}

// NewTierProvider creates the provider. remote may be nil.
func NewTierProvider(local ports.LocalStore, remote *supabase.Remote, logger *zap.Logger) *TierProvider {
	return &TierProvider{local: local, remote: remote, logger: logger}
}

// For returns the store for a scope.
func (p *TierProvider) For(scope auth.Scope) ports.ProgressStore {
	if scope.Authenticated() {
		if p.remote == nil {
			p.logger.Warn("remote tier not configured, serving authenticated user from local store",
				zap.String("user_id", scope.UserID))
			return p.local
		}
		return p.remote.ForUser(scope.UserID)
	}
	return p.local
}
