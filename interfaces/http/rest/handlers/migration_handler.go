package handlers

import (
	"net/http"

	"clarityos-backend/application/migration"
	"clarityos-backend/pkg/auth"
	"clarityos-backend/pkg/common"
	apperrors "clarityos-backend/pkg/errors"

	"go.uber.org/zap"
)

// MigrationHandler serves the anonymous-to-account migration endpoint.
type MigrationHandler struct {
	engine *migration.Engine
	logger *zap.Logger
}

// NewMigrationHandler creates a new migration handler.
func NewMigrationHandler(engine *migration.Engine, logger *zap.Logger) *MigrationHandler {
	return &MigrationHandler{engine: engine, logger: logger}
}

// Migrate handles POST /api/v1/migrate. The route requires an
// authenticated scope; the local namespace is drained into the caller's
// account.
func (h *MigrationHandler) Migrate(w http.ResponseWriter, r *http.Request) {
	scope, err := auth.GetScopeFromContext(r.Context())
	if err != nil || !scope.Authenticated() {
		common.RespondAppError(w, apperrors.NewUnauthorizedError("sign in required"))
		return
	}

	result, err := h.engine.MigrateAll(r.Context(), scope.UserID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	// Partial failure is a successful HTTP exchange; the per-item errors
	// ride in the body so the client can retry later.
	common.RespondJSON(w, http.StatusOK, result)
}
