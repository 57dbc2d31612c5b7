package handler

import (
	"net/http"

	"feedback-be/internal/service"
	"feedback-be/pkg/logger"
)

// MeHandler serves the caller's own profile
type MeHandler struct {
	respondents *service.RespondentService
	logger      *logger.Logger
}

// NewMeHandler creates a new profile handler
func NewMeHandler(respondents *service.RespondentService, logger *logger.Logger) *MeHandler {
	return &MeHandler{respondents: respondents, logger: logger}
}

// Get handles GET /api/v1/me
func (h *MeHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileOrReject(w, r)
	if !ok {
		return
	}

	view, err := h.respondents.Me(r.Context(), profile)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
