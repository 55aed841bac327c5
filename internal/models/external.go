package models

import (
	"strings"
	"time"
)

// Principal is the auth service's representation of a user. Fetched live,
// never persisted or cached here.
type Principal struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Role      int       `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoleName resolves the numeric role code to its display name.
func (p Principal) RoleName() string {
	return string(RoleFromCode(p.Role))
}

// FullName joins the name parts, tolerating empty components.
func (p Principal) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Course is the course service's representation of a course. The subscriber
// count is that service's cached projection of our enrollment totals.
type Course struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TeacherID   int64     `json:"idTeacher"`
	Subscribers int       `json:"numberSubscribers"`
	CreatedAt   time.Time `json:"createdAt"`
}
