package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"feedback-be/internal/domain"
	"feedback-be/internal/service"
	apperrors "feedback-be/pkg/errors"
	"feedback-be/pkg/logger"
)

// ReportHandler serves aggregate reports
type ReportHandler struct {
	reports *service.ReportService
	logger  *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *service.ReportService, logger *logger.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

// Aggregate handles GET /api/v1/reports/aggregate
func (h *ReportHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileOrReject(w, r)
	if !ok {
		return
	}

	req, err := parseReportQuery(r.URL.Query())
	if err != nil {
		respondError(w, r, apperrors.NewValidationError(err.Error(), nil), h.logger)
		return
	}

	report, err := h.reports.Aggregate(r.Context(), profile, req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=30")
	respondJSON(w, http.StatusOK, report)
}

func parseReportQuery(q url.Values) (domain.ReportRequest, error) {
	req := domain.ReportRequest{
		Metric:     domain.MetricKind(q.Get("metric")),
		QuestionID: q.Get("question_id"),
		GroupBy:    domain.GroupBy(q.Get("group_by")),
		Filter: domain.ReportFilter{
			Faculty:   q.Get("faculty"),
			Program:   q.Get("program"),
			Group:     q.Get("group"),
			Subject:   q.Get("subject"),
			TeacherID: q.Get("teacher_id"),
			PollType:  domain.PollType(q.Get("poll_type")),
		},
	}

	var err error
	if req.Filter.Course, err = intParam(q, "course"); err != nil {
		return req, err
	}
	if req.AudienceSize, err = intParam(q, "audience_size"); err != nil {
		return req, err
	}
	if req.Filter.From, err = timeParam(q, "from"); err != nil {
		return req, err
	}
	if req.Filter.To, err = timeParam(q, "to"); err != nil {
		return req, err
	}
	return req, nil
}

func intParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

// timeParam accepts RFC3339 timestamps or plain dates
func timeParam(q url.Values, name string) (*time.Time, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s must be an RFC3339 timestamp or a YYYY-MM-DD date", name)
}
