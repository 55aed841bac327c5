package dto

import (
	"time"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// CourseStats aggregates enrollment counts from this service's own store.
type CourseStats struct {
	CourseID          int64          `json:"course_id"`
	TotalEnrollments  int            `json:"total_enrollments"`
	ActiveEnrollments int            `json:"active_enrollments"`
	StatusBreakdown   map[string]int `json:"status_breakdown"`
	GeneratedAt       time.Time      `json:"generated_at"`
}

// AuthDebug echoes the caller's validated token claims.
type AuthDebug struct {
	Authenticated bool       `json:"authenticated"`
	UserID        string     `json:"user_id"`
	Role          string     `json:"role"`
	Email         string     `json:"email"`
	FullName      string     `json:"full_name"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// ExternalDebug echoes a raw identity-adapter response for diagnosis.
type ExternalDebug struct {
	UserFound          bool              `json:"user_found"`
	User               *models.Principal `json:"user,omitempty"`
	IsStudentByService bool              `json:"is_student_by_service"`
}
