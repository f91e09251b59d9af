package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleProfessor UserRole = "PROFESSOR"
	RoleStudent   UserRole = "STUDENT"
)

// CourseShift is the period of day a student attends classes.
type CourseShift string

const (
	ShiftMorning   CourseShift = "MATUTINO"
	ShiftAfternoon CourseShift = "VESPERTINO"
	ShiftEvening   CourseShift = "NOTURNO"
)

// User represents an application user stored in the users table. Students
// carry an enrollment number, course and shift; professors may additionally
// act as managers of the approval workflow.
type User struct {
	ID           string      `db:"id" json:"id"`
	Email        string      `db:"email" json:"email"`
	PasswordHash string      `db:"password_hash" json:"-"`
	FullName     string      `db:"full_name" json:"full_name"`
	Role         UserRole    `db:"role" json:"role"`
	Manager      bool        `db:"manager" json:"manager"`
	Enrollment   *string     `db:"enrollment" json:"enrollment,omitempty"`
	Course       *string     `db:"course" json:"course,omitempty"`
	Shift        CourseShift `db:"shift" json:"shift,omitempty"`
	Active       bool        `db:"active" json:"active"`
	LastLogin    *time.Time  `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Course    string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
