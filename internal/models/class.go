package models

import "time"

// Class represents a group of students for a school year, with one responsible teacher.
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Level     string    `db:"level" json:"level"`
	Year      string    `db:"year" json:"year"`
	TeacherID *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Level    string
	Year     string
	Search   string
	Page     int
	PageSize int
}

// Course is a subject taught with a weighting coefficient. Exposed as both courses and subjects.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Coefficient float64   `db:"coefficient" json:"coefficient"`
	Level       string    `db:"level" json:"level"`
	TeacherID   *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter defines filter criteria for listing courses.
type CourseFilter struct {
	Level     string
	TeacherID string
	Search    string
	Page      int
	PageSize  int
}
