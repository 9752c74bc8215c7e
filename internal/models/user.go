package models

import (
	"time"

	"github.com/noah-isme/school-admin-api/internal/authz"
)

// UserRole aliases the closed role enumeration used for authorization.
type UserRole = authz.Role

const (
	RoleAdmin   = authz.RoleAdmin
	RoleTeacher = authz.RoleTeacher
	RoleStudent = authz.RoleStudent
	RoleParent  = authz.RoleParent
)

// User represents an application account stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Role         UserRole  `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// NewPagination normalises page inputs the same way repositories do.
func NewPagination(page, size, total int) *Pagination {
	page, size = NormalisePage(page, size)
	return &Pagination{Page: page, PageSize: size, TotalCount: total}
}

// NormalisePage clamps page to >= 1 and size to 1..100 (default 20).
func NormalisePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
