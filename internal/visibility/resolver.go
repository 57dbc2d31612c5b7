// Package visibility decides which respondents a poll is addressed to.
package visibility

import "feedback-be/internal/domain"

// IsVisible reports whether the poll's targeting admits the respondent.
//
// A poll with no targeting dimension set is public. Otherwise the respondent
// must match at least one non-empty dimension. Group matching accepts either the
// group's key or its display name. Absent profile values never match.
// Role-based exclusions are applied by callers.
func IsVisible(poll *domain.Poll, profile domain.RespondentProfile) bool {
	t := poll.Targeting
	if t.IsPublic() {
		return true
	}

	if len(t.Groups) > 0 && (contains(t.Groups, profile.Group.Key) || contains(t.Groups, profile.Group.Name)) {
		return true
	}
	if len(t.Faculties) > 0 && contains(t.Faculties, profile.Faculty.Key) {
		return true
	}
	if len(t.Programs) > 0 && contains(t.Programs, profile.Program.Key) {
		return true
	}
	if len(t.Courses) > 0 && profile.Course > 0 {
		for _, c := range t.Courses {
			if c == profile.Course {
				return true
			}
		}
	}
	return false
}

// Filter returns the polls visible to the profile, preserving order
func Filter(polls []*domain.Poll, profile domain.RespondentProfile) []*domain.Poll {
	out := make([]*domain.Poll, 0, len(polls))
	for _, p := range polls {
		if IsVisible(p, profile) {
			out = append(out, p)
		}
	}
	return out
}

func contains(set []string, v string) bool {
	if v == "" {
		return false
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
