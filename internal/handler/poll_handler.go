package handler

import (
	"net/http"

	"feedback-be/internal/domain"
	"feedback-be/internal/service"
	"feedback-be/pkg/logger"
)

// PollHandler serves the poll catalog
type PollHandler struct {
	polls  *service.PollService
	logger *logger.Logger
}

// NewPollHandler creates a new poll handler
func NewPollHandler(polls *service.PollService, logger *logger.Logger) *PollHandler {
	return &PollHandler{polls: polls, logger: logger}
}

type pollListResponse struct {
	Polls []*domain.Poll `json:"polls"`
	Total int            `json:"total"`
}

// List handles GET /api/v1/polls
func (h *PollHandler) List(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileOrReject(w, r)
	if !ok {
		return
	}

	polls, err := h.polls.ListEligible(r.Context(), profile, domain.Role(r.URL.Query().Get("role")))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, pollListResponse{Polls: polls, Total: len(polls)})
}

// Create handles POST /api/v1/polls
func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileOrReject(w, r)
	if !ok {
		return
	}

	var req service.CreatePollRequest
	if !decodeBody(w, r, &req) {
		return
	}

	poll, err := h.polls.Create(r.Context(), profile, req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, poll)
}

// CreateFromLesson handles POST /api/v1/polls/lesson
func (h *PollHandler) CreateFromLesson(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileOrReject(w, r)
	if !ok {
		return
	}

	var req service.CreateLessonPollRequest
	if !decodeBody(w, r, &req) {
		return
	}

	poll, err := h.polls.CreateFromLesson(r.Context(), profile, req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, poll)
}

// Get handles GET /api/v1/polls/{pollID}
func (h *PollHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileOrReject(w, r)
	if !ok {
		return
	}
	id, ok := pollIDParam(w, r)
	if !ok {
		return
	}

	poll, err := h.polls.Get(r.Context(), id, profile)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, poll)
}

type statusRequest struct {
	Status domain.PollStatus `json:"status"`
}

// UpdateStatus handles PATCH /api/v1/polls/{pollID}/status
func (h *PollHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileOrReject(w, r)
	if !ok {
		return
	}
	id, ok := pollIDParam(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	poll, err := h.polls.UpdateStatus(r.Context(), id, profile, req.Status)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, poll)
}

// Delete handles DELETE /api/v1/polls/{pollID}
func (h *PollHandler) Delete(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileOrReject(w, r)
	if !ok {
		return
	}
	id, ok := pollIDParam(w, r)
	if !ok {
		return
	}

	if err := h.polls.Delete(r.Context(), id, profile); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
