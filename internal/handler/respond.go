package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"feedback-be/internal/domain"
	"feedback-be/internal/middleware"
	apperrors "feedback-be/pkg/errors"
	"feedback-be/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxBodyBytes caps request bodies; answers payloads are small
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError maps domain errors onto the API error envelope
func respondError(w http.ResponseWriter, r *http.Request, err error, log *logger.Logger) {
	appErr := toAppError(err)
	if appErr.Type == apperrors.ErrorTypeInternal {
		log.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
	}
	apperrors.Write(w, appErr, middleware.RequestIDFromContext(r.Context()))
}

func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		details := map[string]interface{}{"code": verr.Code()}
		if verr.QuestionID != "" {
			details["question_id"] = verr.QuestionID
		}
		if verr.Detail != "" {
			details["detail"] = verr.Detail
		}
		return apperrors.NewUnprocessableError("Answers failed validation", details)
	}

	switch {
	case errors.Is(err, domain.ErrPollNotFound):
		return apperrors.NewNotFoundError("Poll not found")
	case errors.Is(err, domain.ErrResponseNotFound):
		return apperrors.NewNotFoundError("Response not found")
	case errors.Is(err, domain.ErrNotEligible):
		return apperrors.NewAuthorizationError("You are not eligible for this poll")
	case errors.Is(err, domain.ErrForbidden):
		return apperrors.NewAuthorizationError("Action not allowed for your role")
	case errors.Is(err, domain.ErrPollNotActive):
		return apperrors.NewConflictError("Poll is not accepting responses", map[string]interface{}{"code": "poll_not_active"})
	case errors.Is(err, domain.ErrDuplicateResponse):
		return apperrors.NewConflictError("You have already responded to this poll", map[string]interface{}{"code": "duplicate_response"})
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		return apperrors.NewConflictError(err.Error(), map[string]interface{}{"code": "invalid_status_transition"})
	case errors.Is(err, domain.ErrInvalidPoll), errors.Is(err, domain.ErrInvalidReportRequest):
		return apperrors.NewValidationError(err.Error(), nil)
	case errors.Is(err, domain.ErrRateLimited):
		return apperrors.NewRateLimitError("Too many submissions, try again later")
	}
	return apperrors.NewInternalError("Internal server error", err)
}

func profileOrReject(w http.ResponseWriter, r *http.Request) (domain.RespondentProfile, bool) {
	profile, ok := middleware.ProfileFromContext(r.Context())
	if !ok {
		apperrors.Write(w, apperrors.NewAuthenticationError("Authentication required"), middleware.RequestIDFromContext(r.Context()))
		return domain.RespondentProfile{}, false
	}
	return *profile, true
}

func pollIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "pollID"))
	if err != nil {
		apperrors.Write(w, apperrors.NewValidationError("Invalid poll ID", nil), middleware.RequestIDFromContext(r.Context()))
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		apperrors.Write(w, apperrors.NewValidationError("Invalid request body", map[string]interface{}{"detail": err.Error()}),
			middleware.RequestIDFromContext(r.Context()))
		return false
	}
	return true
}
