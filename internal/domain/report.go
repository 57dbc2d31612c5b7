package domain

import "time"

// MetricKind selects the per-response number aggregated by reports
type MetricKind string

const (
	MetricIKOP       MetricKind = "ikop"
	MetricQuestion   MetricKind = "question"
	MetricAnswerMean MetricKind = "answer_mean"
)

// GroupBy selects the breakdown dimension
type GroupBy string

const (
	GroupByNone     GroupBy = ""
	GroupByFaculty  GroupBy = "faculty"
	GroupByProgram  GroupBy = "program"
	GroupByCourse   GroupBy = "course"
	GroupByGroup    GroupBy = "group"
	GroupBySubject  GroupBy = "subject"
	GroupByTeacher  GroupBy = "teacher"
	GroupByPollType GroupBy = "poll_type"
)

// Valid reports whether g is a known grouping
func (g GroupBy) Valid() bool {
	switch g {
	case GroupByNone, GroupByFaculty, GroupByProgram, GroupByCourse, GroupByGroup,
		GroupBySubject, GroupByTeacher, GroupByPollType:
		return true
	}
	return false
}

// ReportFilter narrows the polls and responses a report covers. Respondent
// dimensions match the frozen response snapshot.
type ReportFilter struct {
	Faculty   string     `json:"faculty,omitempty"`
	Program   string     `json:"program,omitempty"`
	Course    int        `json:"course,omitempty"`
	Group     string     `json:"group,omitempty"`
	Subject   string     `json:"subject,omitempty"`
	TeacherID string     `json:"teacher_id,omitempty"`
	PollType  PollType   `json:"poll_type,omitempty"`
	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"`
}

// HasRespondentDimension reports whether any snapshot-level filter is set
func (f ReportFilter) HasRespondentDimension() bool {
	return f.Faculty != "" || f.Program != "" || f.Course > 0 || f.Group != ""
}

// ReportRequest is a filter plus the metric and grouping to compute
type ReportRequest struct {
	Filter       ReportFilter `json:"filter"`
	Metric       MetricKind   `json:"metric"`
	QuestionID   string       `json:"question_id,omitempty"`
	GroupBy      GroupBy      `json:"group_by,omitempty"`
	AudienceSize int          `json:"audience_size,omitempty"`
}

// Stats are descriptive statistics of a metric sample
type Stats struct {
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	StdDev *float64 `json:"std_dev"`
}

// ReportSummary holds the totals of a report
type ReportSummary struct {
	EligiblePolls       int      `json:"eligible_polls"`
	Responses           int      `json:"responses"`
	DistinctRespondents int      `json:"distinct_respondents"`
	CoverageRatio       *float64 `json:"coverage_ratio"`
	Metric              Stats    `json:"metric"`
	Zone                string   `json:"zone,omitempty"`
}

// ReportBucket is one group of the breakdown
type ReportBucket struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	SampleSize int     `json:"sample_size"`
	Mean       float64 `json:"mean"`
	Ranked     bool    `json:"ranked"`
}

// Report is the aggregate output consumed by dashboards
type Report struct {
	Summary     ReportSummary  `json:"summary"`
	Breakdown   []ReportBucket `json:"breakdown"`
	Top         []ReportBucket `json:"top"`
	Bottom      []ReportBucket `json:"bottom"`
	GeneratedAt time.Time      `json:"generated_at"`
}
