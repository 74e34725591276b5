package persistence

import (
	"context"

	"clarityos-backend/application/ports"
	"clarityos-backend/pkg/auth"
)

// NoProfileProvider is the BusinessContextProvider used when no profile
// source is configured. Every scope gets generic prompts.
type NoProfileProvider struct{}

// GetBusinessContext always reports no personalization data.
func (NoProfileProvider) GetBusinessContext(ctx context.Context, scope auth.Scope) ports.BusinessContext {
	return ports.BusinessContext{Source: "none"}
}
