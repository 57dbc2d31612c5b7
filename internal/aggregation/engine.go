// Package aggregation rolls stored responses up into dashboard reports.
package aggregation

import (
	"sort"
	"strconv"
	"time"

	"feedback-be/internal/domain"
	"feedback-be/internal/scoring"
)

// Defaults used when the engine is built with zero values
const (
	DefaultMinSampleSize = 3
	DefaultTopN          = 5
)

// Engine computes aggregate reports over polls with their embedded responses.
type Engine struct {
	// MinSampleSize is the smallest bucket that may appear in Top/Bottom rankings
	MinSampleSize int
	TopN          int
	Now           func() time.Time
}

// NewEngine creates an engine, applying defaults for non-positive values
func NewEngine(minSampleSize, topN int) *Engine {
	if minSampleSize <= 0 {
		minSampleSize = DefaultMinSampleSize
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Engine{MinSampleSize: minSampleSize, TopN: topN, Now: time.Now}
}

// Normalize fills request defaults and rejects unusable requests
func Normalize(req domain.ReportRequest) (domain.ReportRequest, error) {
	if req.Metric == "" {
		req.Metric = domain.MetricIKOP
	}
	switch req.Metric {
	case domain.MetricIKOP, domain.MetricAnswerMean:
	case domain.MetricQuestion:
		if req.QuestionID == "" {
			return req, domain.InvalidReport("metric %q needs a question_id", req.Metric)
		}
	default:
		return req, domain.InvalidReport("unknown metric %q", req.Metric)
	}
	if !req.GroupBy.Valid() {
		return req, domain.InvalidReport("unknown group_by %q", req.GroupBy)
	}
	if req.Filter.PollType != "" && !req.Filter.PollType.Valid() {
		return req, domain.InvalidReport("unknown poll_type %q", req.Filter.PollType)
	}
	if req.Filter.From != nil && req.Filter.To != nil && req.Filter.To.Before(*req.Filter.From) {
		return req, domain.InvalidReport("time window ends before it starts")
	}
	if req.AudienceSize < 0 {
		return req, domain.InvalidReport("audience_size must not be negative")
	}
	return req, nil
}

type bucket struct {
	key, label string
	values     []float64
}

// Compute builds a report. Respondent dimensions are matched against the
// snapshot frozen on each response, never the respondent's current profile.
func (e *Engine) Compute(polls []*domain.Poll, req domain.ReportRequest) (*domain.Report, error) {
	req, err := Normalize(req)
	if err != nil {
		return nil, err
	}

	var (
		eligible    int
		responses   int
		respondents = make(map[string]struct{})
		sample      []float64
		buckets     = make(map[string]*bucket)
	)

	for _, poll := range polls {
		if !pollMatches(poll, req.Filter) {
			continue
		}
		eligible++

		for i := range poll.Responses {
			resp := &poll.Responses[i]
			if !responseMatches(resp, req.Filter) {
				continue
			}
			responses++
			respondents[resp.RespondentID] = struct{}{}

			value, ok := metricValue(resp, req)
			if !ok {
				continue
			}
			sample = append(sample, value)

			key, label := groupKey(poll, resp, req.GroupBy)
			if key == "" {
				continue
			}
			b, exists := buckets[key]
			if !exists {
				b = &bucket{key: key, label: label}
				buckets[key] = b
			}
			b.values = append(b.values, value)
		}
	}

	report := &domain.Report{
		Summary: domain.ReportSummary{
			EligiblePolls:       eligible,
			Responses:           responses,
			DistinctRespondents: len(respondents),
			Metric:              Describe(sample),
		},
		Breakdown:   []domain.ReportBucket{},
		Top:         []domain.ReportBucket{},
		Bottom:      []domain.ReportBucket{},
		GeneratedAt: e.now(),
	}
	if req.AudienceSize > 0 {
		ratio := float64(len(respondents)) / float64(req.AudienceSize)
		report.Summary.CoverageRatio = &ratio
	}
	if req.Metric == domain.MetricIKOP && report.Summary.Metric.Mean != nil {
		report.Summary.Zone = scoring.Zone(scoring.Round(*report.Summary.Metric.Mean))
	}

	if req.GroupBy != domain.GroupByNone {
		report.Breakdown, report.Top, report.Bottom = e.rank(buckets)
	}
	return report, nil
}

func (e *Engine) rank(buckets map[string]*bucket) (all, top, bottom []domain.ReportBucket) {
	all = make([]domain.ReportBucket, 0, len(buckets))
	for _, b := range buckets {
		all = append(all, domain.ReportBucket{
			Key:        b.key,
			Label:      b.label,
			SampleSize: len(b.values),
			Mean:       mean(b.values),
			Ranked:     len(b.values) >= e.minSample(),
		})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Mean != all[j].Mean {
			return all[i].Mean > all[j].Mean
		}
		return all[i].Key < all[j].Key
	})

	ranked := make([]domain.ReportBucket, 0, len(all))
	for _, b := range all {
		if b.Ranked {
			ranked = append(ranked, b)
		}
	}

	n := e.topN()
	if n > len(ranked) {
		n = len(ranked)
	}
	top = append([]domain.ReportBucket{}, ranked[:n]...)
	bottom = make([]domain.ReportBucket, 0, n)
	for i := len(ranked) - 1; i >= len(ranked)-n; i-- {
		bottom = append(bottom, ranked[i])
	}
	return all, top, bottom
}

func (e *Engine) minSample() int {
	if e.MinSampleSize <= 0 {
		return DefaultMinSampleSize
	}
	return e.MinSampleSize
}

func (e *Engine) topN() int {
	if e.TopN <= 0 {
		return DefaultTopN
	}
	return e.TopN
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now().UTC()
}

// pollMatches applies poll-level filters. Respondent dimensions are checked
// one at a time against the same targeting dimension; a poll that does not
// restrict a filtered dimension stays eligible.
func pollMatches(poll *domain.Poll, f domain.ReportFilter) bool {
	if poll.DeletedAt != nil {
		return false
	}
	if f.PollType != "" && poll.Type != f.PollType {
		return false
	}
	if f.Subject != "" && (poll.Lesson == nil || poll.Lesson.Subject != f.Subject) {
		return false
	}
	if f.TeacherID != "" && (poll.Lesson == nil || poll.Lesson.TeacherID != f.TeacherID) {
		return false
	}
	if f.From != nil && !poll.EndsAt.After(*f.From) {
		return false
	}
	if f.To != nil && poll.StartsAt.After(*f.To) {
		return false
	}
	if f.HasRespondentDimension() && !targetingAdmits(poll, f) {
		return false
	}
	return true
}

// targetingAdmits reports whether each filtered dimension is either left open
// by the poll's targeting or overlaps it. Filters may name an attribute by key
// or display name, so snapshot keys of matching responses are also accepted.
func targetingAdmits(poll *domain.Poll, f domain.ReportFilter) bool {
	t := poll.Targeting
	snap := func(pick func(domain.Snapshot) domain.Attribute, v string) []string {
		var keys []string
		for i := range poll.Responses {
			if a := pick(poll.Responses[i].Snapshot); attributeIs(a, v) {
				keys = append(keys, a.Key)
			}
		}
		return keys
	}

	if f.Faculty != "" && len(t.Faculties) > 0 &&
		!overlaps(t.Faculties, f.Faculty, snap(func(s domain.Snapshot) domain.Attribute { return s.Faculty }, f.Faculty)) {
		return false
	}
	if f.Program != "" && len(t.Programs) > 0 &&
		!overlaps(t.Programs, f.Program, snap(func(s domain.Snapshot) domain.Attribute { return s.Program }, f.Program)) {
		return false
	}
	if f.Group != "" && len(t.Groups) > 0 &&
		!overlaps(t.Groups, f.Group, snap(func(s domain.Snapshot) domain.Attribute { return s.Group }, f.Group)) {
		return false
	}
	if f.Course > 0 && len(t.Courses) > 0 {
		found := false
		for _, c := range t.Courses {
			if c == f.Course {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func overlaps(set []string, value string, aliases []string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
		for _, a := range aliases {
			if a != "" && s == a {
				return true
			}
		}
	}
	return false
}

func responseMatches(resp *domain.Response, f domain.ReportFilter) bool {
	s := resp.Snapshot
	if f.Faculty != "" && !attributeIs(s.Faculty, f.Faculty) {
		return false
	}
	if f.Program != "" && !attributeIs(s.Program, f.Program) {
		return false
	}
	if f.Course > 0 && s.Course.Key != strconv.Itoa(f.Course) {
		return false
	}
	if f.Group != "" && !attributeIs(s.Group, f.Group) {
		return false
	}
	if f.From != nil && resp.SubmittedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && resp.SubmittedAt.After(*f.To) {
		return false
	}
	return true
}

func attributeIs(a domain.Attribute, v string) bool {
	return a.Key == v || a.Name == v
}

func groupKey(poll *domain.Poll, resp *domain.Response, by domain.GroupBy) (key, label string) {
	s := resp.Snapshot
	switch by {
	case domain.GroupByFaculty:
		return attributeKey(s.Faculty)
	case domain.GroupByProgram:
		return attributeKey(s.Program)
	case domain.GroupByCourse:
		return attributeKey(s.Course)
	case domain.GroupByGroup:
		return attributeKey(s.Group)
	case domain.GroupBySubject:
		if poll.Lesson != nil {
			return poll.Lesson.Subject, poll.Lesson.Subject
		}
	case domain.GroupByTeacher:
		if poll.Lesson != nil {
			label = poll.Lesson.TeacherName
			if label == "" {
				label = poll.Lesson.TeacherID
			}
			return poll.Lesson.TeacherID, label
		}
	case domain.GroupByPollType:
		return string(poll.Type), string(poll.Type)
	}
	return "", ""
}

func attributeKey(a domain.Attribute) (string, string) {
	key := a.Key
	if key == "" {
		key = a.Name
	}
	label := a.Name
	if label == "" {
		label = key
	}
	return key, label
}
