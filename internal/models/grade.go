package models

import "time"

// DefaultMaxScore bounds a grade recorded outside of an evaluation.
const DefaultMaxScore = 20.0

// Evaluation is a graded event for a course and class.
type Evaluation struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Date        time.Time `db:"date" json:"date"`
	MaxScore    float64   `db:"max_score" json:"max_score"`
	Coefficient float64   `db:"coefficient" json:"coefficient"`
	CourseID    string    `db:"course_id" json:"course_id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// EvaluationFilter scopes evaluation listings.
type EvaluationFilter struct {
	CourseID string
	ClassID  string
	Page     int
	PageSize int
}

// Grade is a single mark obtained by a student.
type Grade struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	EvaluationID *string   `db:"evaluation_id" json:"evaluation_id,omitempty"`
	CourseID     string    `db:"course_id" json:"course_id"`
	TeacherID    *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	Value        float64   `db:"value" json:"value"`
	Coefficient  float64   `db:"coefficient" json:"coefficient"`
	GradedOn     time.Time `db:"graded_on" json:"graded_on"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// GradeFilter allows querying grade entries.
type GradeFilter struct {
	StudentID    string
	CourseID     string
	EvaluationID string
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
}

// WeightedAverage returns Σ(value×coefficient)/Σ(coefficient), or 0 when the coefficients sum
// to zero. The result is not rounded.
func WeightedAverage(grades []Grade) float64 {
	var weighted, coefficients float64
	for _, g := range grades {
		weighted += g.Value * g.Coefficient
		coefficients += g.Coefficient
	}
	if coefficients == 0 {
		return 0
	}
	return weighted / coefficients
}

// PeriodStatus tracks the lifecycle of a grading period.
type PeriodStatus string

const (
	PeriodStatusUpcoming PeriodStatus = "UPCOMING"
	PeriodStatusActive   PeriodStatus = "ACTIVE"
	PeriodStatusClosed   PeriodStatus = "CLOSED"
)

// Period is a school-year scoped date range (trimester, semester) report cards are issued for.
type Period struct {
	ID         string       `db:"id" json:"id"`
	Name       string       `db:"name" json:"name"`
	SchoolYear string       `db:"school_year" json:"school_year"`
	StartDate  time.Time    `db:"start_date" json:"start_date"`
	EndDate    time.Time    `db:"end_date" json:"end_date"`
	Status     PeriodStatus `db:"status" json:"status"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// PeriodFilter defines filters supported by period listings.
type PeriodFilter struct {
	SchoolYear string
	Status     PeriodStatus
	Page       int
	PageSize   int
}

// StudentAverage is the weighted average of a student over a period.
type StudentAverage struct {
	StudentID  string  `json:"student_id"`
	PeriodID   string  `json:"period_id"`
	Average    float64 `json:"average"`
	GradeCount int     `json:"grade_count"`
}
