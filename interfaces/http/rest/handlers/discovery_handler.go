package handlers

import (
	"net/http"

	"clarityos-backend/application/discovery"
	"clarityos-backend/pkg/auth"
	"clarityos-backend/pkg/common"
	apperrors "clarityos-backend/pkg/errors"
	"clarityos-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxTurnBodyBytes bounds the turn request body. Utterances are capped
// well below this; the slack covers JSON framing.
const maxTurnBodyBytes = 16 * 1024

// TurnRequest is the submit-utterance request body. Oversized text is
// truncated by the engine, not rejected here.
type TurnRequest struct {
	Text string `json:"text" validate:"required"`
}

// DiscoveryHandler serves the guided-discovery conversation endpoints.
type DiscoveryHandler struct {
	engine  *discovery.Engine
	limiter *auth.TurnRateLimiter
	logger  *zap.Logger
}

// NewDiscoveryHandler creates a new discovery handler.
func NewDiscoveryHandler(engine *discovery.Engine, limiter *auth.TurnRateLimiter, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{engine: engine, limiter: limiter, logger: logger}
}

// SubmitTurn handles POST /api/v1/cards/{cardSlug}/turns
func (h *DiscoveryHandler) SubmitTurn(w http.ResponseWriter, r *http.Request) {
	scope, err := auth.GetScopeFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, apperrors.NewUnauthorizedError("missing request scope"))
		return
	}

	allowed, err := h.limiter.Allow(r.Context(), scope)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	if !allowed {
		common.RespondAppError(w, apperrors.NewRateLimitError(h.limiter.Limit(), "1m"))
		return
	}

	var req TurnRequest
	if err := common.ParseJSONBody(r, &req, maxTurnBodyBytes); err != nil {
		common.RespondAppError(w, apperrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, apperrors.NewValidationError(err.Error()))
		return
	}

	result, err := h.engine.SubmitUtterance(r.Context(), scope, chi.URLParam(r, "cardSlug"), req.Text)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// GetConversation handles GET /api/v1/cards/{cardSlug}/conversation
func (h *DiscoveryHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	scope, err := auth.GetScopeFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, apperrors.NewUnauthorizedError("missing request scope"))
		return
	}

	rec, err := h.engine.GetConversation(r.Context(), scope, chi.URLParam(r, "cardSlug"))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	if rec == nil {
		common.RespondAppError(w, apperrors.NewNotFoundError("conversation"))
		return
	}

	common.RespondJSON(w, http.StatusOK, rec)
}

// ResetConversation handles DELETE /api/v1/cards/{cardSlug}/conversation
func (h *DiscoveryHandler) ResetConversation(w http.ResponseWriter, r *http.Request) {
	scope, err := auth.GetScopeFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, apperrors.NewUnauthorizedError("missing request scope"))
		return
	}

	if err := h.engine.StartOver(r.Context(), scope, chi.URLParam(r, "cardSlug")); err != nil {
		common.RespondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
