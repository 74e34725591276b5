package handlers

import (
	"net/http"

	"clarityos-backend/application/discovery"
	"clarityos-backend/domain/cards"
	"clarityos-backend/pkg/auth"
	"clarityos-backend/pkg/common"
	apperrors "clarityos-backend/pkg/errors"

	"go.uber.org/zap"
)

// StatementHandler serves the scored brand statement and the card
// catalog.
type StatementHandler struct {
	engine  *discovery.Engine
	catalog cards.Catalog
	logger  *zap.Logger
}

// NewStatementHandler creates a new statement handler.
func NewStatementHandler(engine *discovery.Engine, catalog cards.Catalog, logger *zap.Logger) *StatementHandler {
	return &StatementHandler{engine: engine, catalog: catalog, logger: logger}
}

// GetCurrentStatement handles GET /api/v1/statements/current
func (h *StatementHandler) GetCurrentStatement(w http.ResponseWriter, r *http.Request) {
	scope, err := auth.GetScopeFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, apperrors.NewUnauthorizedError("missing request scope"))
		return
	}

	statement, err := h.engine.GetCurrentStatement(r.Context(), scope)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	if statement == nil {
		common.RespondAppError(w, apperrors.NewNotFoundError("statement"))
		return
	}

	common.RespondJSON(w, http.StatusOK, statement)
}

// ListCards handles GET /api/v1/cards
func (h *StatementHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"cards": h.catalog.All(),
	})
}
