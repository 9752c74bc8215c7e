package models

import "time"

// Student is a learner, optionally linked to a user account, a class and a parent.
type Student struct {
	ID        string     `db:"id" json:"id"`
	UserID    *string    `db:"user_id" json:"user_id,omitempty"`
	ClassID   *string    `db:"class_id" json:"class_id,omitempty"`
	ParentID  *string    `db:"parent_id" json:"parent_id,omitempty"`
	FirstName string     `db:"first_name" json:"first_name"`
	LastName  string     `db:"last_name" json:"last_name"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// StudentFilter encapsulates search parameters for listing students.
type StudentFilter struct {
	ClassID  string
	ParentID string
	Search   string
	Page     int
	PageSize int
}

// Teacher is a staff member teaching courses.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Specialty string    `db:"specialty" json:"specialty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Parent is a legal guardian of one or more students.
type Parent struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PersonFilter is shared by teacher and parent listings.
type PersonFilter struct {
	Search   string
	Page     int
	PageSize int
}

// ParentContact is the mailing view of a parent for a given student.
type ParentContact struct {
	StudentID   string `db:"student_id"`
	StudentName string `db:"student_name"`
	ParentName  string `db:"parent_name"`
	Email       string `db:"email"`
}
