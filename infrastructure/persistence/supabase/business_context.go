package supabase

import (
	"context"
	"encoding/json"

	"clarityos-backend/application/ports"
	"clarityos-backend/pkg/auth"

	"go.uber.org/zap"
)

// profileRow is the onboarding profile shape read for personalization.
type profileRow struct {
	BusinessName     string `json:"business_name"`
	BusinessStage    string `json:"business_stage"`
	WhatBusinessDoes string `json:"what_business_does"`
}

// BusinessContextProvider reads the user's onboarding profile so the
// discovery prompts can reference their actual business. Anonymous
// sessions have no profile; any lookup failure degrades to generic
// prompts rather than failing the turn.
type BusinessContextProvider struct {
	remote *Remote
	logger *zap.Logger
}

// NewBusinessContextProvider creates the provider on the remote tier.
func NewBusinessContextProvider(remote *Remote, logger *zap.Logger) *BusinessContextProvider {
	return &BusinessContextProvider{remote: remote, logger: logger}
}

// GetBusinessContext returns the personalization data for a scope.
func (p *BusinessContextProvider) GetBusinessContext(ctx context.Context, scope auth.Scope) ports.BusinessContext {
	if !scope.Authenticated() {
		return ports.BusinessContext{Source: "none"}
	}

	data, _, err := p.remote.client.From(tableProfiles).
		Select("business_name,business_stage,what_business_does", "", false).
		Eq("id", scope.UserID).
		Execute()
	if err != nil {
		p.logger.Debug("business context lookup failed",
			zap.String("user_id", scope.UserID), zap.Error(err))
		return ports.BusinessContext{Source: "none"}
	}

	var rows []profileRow
	if err := json.Unmarshal(data, &rows); err != nil || len(rows) == 0 {
		return ports.BusinessContext{Source: "none"}
	}

	row := rows[0]
	if row.BusinessName == "" && row.BusinessStage == "" && row.WhatBusinessDoes == "" {
		return ports.BusinessContext{Source: "profile"}
	}

	return ports.BusinessContext{
		BusinessName:     row.BusinessName,
		BusinessStage:    row.BusinessStage,
		WhatBusinessDoes: row.WhatBusinessDoes,
		HasData:          true,
		Source:           "profile",
	}
}
