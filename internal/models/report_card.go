package models

import "time"

// ReportCardStatus is the publication workflow state of a report card.
type ReportCardStatus string

const (
	ReportCardStatusDraft     ReportCardStatus = "DRAFT"
	ReportCardStatusPublished ReportCardStatus = "PUBLISHED"
	ReportCardStatusArchived  ReportCardStatus = "ARCHIVED"
)

// Valid reports whether s is a known status.
func (s ReportCardStatus) Valid() bool {
	switch s {
	case ReportCardStatusDraft, ReportCardStatusPublished, ReportCardStatusArchived:
		return true
	}
	return false
}

// CanTransitionTo enforces DRAFT → PUBLISHED → ARCHIVED. Re-applying the current status is allowed.
func (s ReportCardStatus) CanTransitionTo(next ReportCardStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case ReportCardStatusDraft:
		return next == ReportCardStatusPublished
	case ReportCardStatusPublished:
		return next == ReportCardStatusArchived
	}
	return false
}

// FinancialStatus mirrors the payment state of the student on a report card.
type FinancialStatus string

const (
	FinancialStatusPending FinancialStatus = "PENDING"
	FinancialStatusPaid    FinancialStatus = "PAID"
	FinancialStatusLate    FinancialStatus = "LATE"
)

// ReportCard is the per (student, period) bulletin.
type ReportCard struct {
	ID              string           `db:"id" json:"id"`
	StudentID       string           `db:"student_id" json:"student_id"`
	PeriodID        string           `db:"period_id" json:"period_id"`
	Average         float64          `db:"average" json:"average"`
	Appreciation    string           `db:"appreciation" json:"appreciation"`
	Status          ReportCardStatus `db:"status" json:"status"`
	FinancialStatus FinancialStatus  `db:"financial_status" json:"financial_status"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// ReportCardDetail joins the student and period labels used by listings and PDFs.
type ReportCardDetail struct {
	ReportCard
	StudentFirstName string  `db:"student_first_name" json:"student_first_name"`
	StudentLastName  string  `db:"student_last_name" json:"student_last_name"`
	ClassID          *string `db:"class_id" json:"class_id,omitempty"`
	ClassName        *string `db:"class_name" json:"class_name,omitempty"`
	PeriodName       string  `db:"period_name" json:"period_name"`
	SchoolYear       string  `db:"school_year" json:"school_year"`
}

// ReportCardFilter scopes report card listings.
type ReportCardFilter struct {
	PeriodID   string
	StudentID  string
	ClassID    string
	Status     ReportCardStatus
	StudentIDs []string // when non-nil, restricts results to these students even if empty
	Page       int
	PageSize   int
}

// ClassReportRow ranks a student inside a class summary.
type ClassReportRow struct {
	ReportCardID string           `json:"report_card_id"`
	StudentID    string           `json:"student_id"`
	StudentName  string           `json:"student_name"`
	Average      float64          `json:"average"`
	Rank         int              `json:"rank"`
	Status       ReportCardStatus `json:"status"`
}

// ClassReportSummary aggregates report cards of a class for a period.
type ClassReportSummary struct {
	ClassID      string           `json:"class_id"`
	PeriodID     string           `json:"period_id"`
	ClassAverage float64          `json:"class_average"`
	Highest      float64          `json:"highest"`
	Lowest       float64          `json:"lowest"`
	Students     []ClassReportRow `json:"students"`
}

// CourseAverage is one line of a printed bulletin.
type CourseAverage struct {
	CourseID    string  `db:"course_id" json:"course_id"`
	CourseName  string  `db:"course_name" json:"course_name"`
	Coefficient float64 `db:"coefficient" json:"coefficient"`
	Average     float64 `db:"average" json:"average"`
}

// ReportCardDocument carries what a printed bulletin needs.
type ReportCardDocument struct {
	Card        ReportCardDetail `json:"card"`
	Courses     []CourseAverage  `json:"courses"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// BatchResult reports how many rows a batch operation touched.
type BatchResult struct {
	Affected int64 `json:"affected"`
}
