package handler

import (
	"encoding/json"
	"net/http"

	"feedback-be/internal/service"
	"feedback-be/pkg/logger"
)

// ResponseHandler serves response submission
type ResponseHandler struct {
	responses *service.ResponseService
	logger    *logger.Logger
}

// NewResponseHandler creates a new response handler
func NewResponseHandler(responses *service.ResponseService, logger *logger.Logger) *ResponseHandler {
	return &ResponseHandler{responses: responses, logger: logger}
}

// submitRequest wraps the raw answers payload; its shape is decoded by the validator
type submitRequest struct {
	Answers json.RawMessage `json:"answers"`
}

// Submit handles POST /api/v1/polls/{pollID}/responses
func (h *ResponseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileOrReject(w, r)
	if !ok {
		return
	}
	id, ok := pollIDParam(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.responses.Submit(r.Context(), id, profile, req.Answers)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// GetMine handles GET /api/v1/polls/{pollID}/responses/me
func (h *ResponseHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileOrReject(w, r)
	if !ok {
		return
	}
	id, ok := pollIDParam(w, r)
	if !ok {
		return
	}

	resp, err := h.responses.GetMine(r.Context(), id, profile)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
