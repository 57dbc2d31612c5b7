package domain

import "strconv"

// Role of an authenticated respondent
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher || r == RoleAdmin
}

// Gamified reports whether responses from this role earn points
func (r Role) Gamified() bool {
	return r == RoleStudent
}

// Attribute is an enrollment attribute with its machine key and display name
type Attribute struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// RespondentProfile is the already-authenticated identity handed to the core
type RespondentProfile struct {
	ID      string    `json:"id"`
	Role    Role      `json:"role"`
	Faculty Attribute `json:"faculty"`
	Program Attribute `json:"program"`
	Course  int       `json:"course,omitempty"`
	Group   Attribute `json:"group"`
}

// Snapshot is the frozen copy of respondent attributes stored on a response
type Snapshot struct {
	Role    Role      `json:"role"`
	Faculty Attribute `json:"faculty"`
	Program Attribute `json:"program"`
	Course  Attribute `json:"course"`
	Group   Attribute `json:"group"`
}

// Snapshot freezes the profile's current enrollment attributes
func (p RespondentProfile) Snapshot() Snapshot {
	course := Attribute{}
	if p.Course > 0 {
		key := strconv.Itoa(p.Course)
		course = Attribute{Key: key, Name: key}
	}
	return Snapshot{
		Role:    p.Role,
		Faculty: p.Faculty,
		Program: p.Program,
		Course:  course,
		Group:   p.Group,
	}
}

// Gamification holds the cumulative point total and derived level
type Gamification struct {
	Points int `json:"points"`
	Level  int `json:"level"`
}

// StudentProfile is the student-specific sub-structure that owns gamification state
type StudentProfile struct {
	Gamification Gamification `json:"gamification"`
}

// Respondent is the stored view of a respondent. Points and level live only
// under the role-specific sub-structure.
type Respondent struct {
	Profile RespondentProfile `json:"profile"`
	Student *StudentProfile   `json:"student,omitempty"`
}

// RespondentView is the flat read-time projection used by listings
type RespondentView struct {
	Respondent
	Points int `json:"points"`
	Level  int `json:"level"`
}

// View projects the nested gamification fields onto flat ones
func (r Respondent) View() RespondentView {
	view := RespondentView{Respondent: r}
	if r.Student != nil {
		view.Points = r.Student.Gamification.Points
		view.Level = r.Student.Gamification.Level
	}
	return view
}
