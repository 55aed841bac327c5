package models

import "time"

// EnrollmentStatus represents the lifecycle state of an enrollment row.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusEnrolled    EnrollmentStatus = "Enrolled"
	EnrollmentStatusWithdrawn   EnrollmentStatus = "Withdrawn"
	EnrollmentStatusCompleted   EnrollmentStatus = "Completed"
	EnrollmentStatusSuspended   EnrollmentStatus = "Suspended"
	EnrollmentStatusTransferred EnrollmentStatus = "Transferred"
)

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s EnrollmentStatus) bool {
	switch s {
	case EnrollmentStatusEnrolled, EnrollmentStatusWithdrawn, EnrollmentStatusCompleted,
		EnrollmentStatusSuspended, EnrollmentStatusTransferred:
		return true
	}
	return false
}

// Enrollment links a student identifier to a course identifier. Student and
// course data live in the external auth and course services; only the ids
// are persisted here.
type Enrollment struct {
	ID         int64            `db:"id" json:"id"`
	StudentID  int64            `db:"student_id" json:"student_id"`
	CourseID   int64            `db:"course_id" json:"course_id"`
	EnrolledAt time.Time        `db:"enrolled_at" json:"enrolled_at"`
	Status     EnrollmentStatus `db:"status" json:"status"`
	IsActive   bool             `db:"is_active" json:"is_active"`
	Notes      *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID  int64
	CourseID   int64
	Status     EnrollmentStatus
	ActiveOnly bool
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// StatusCount pairs a lifecycle state with the number of rows in it.
type StatusCount struct {
	Status EnrollmentStatus `db:"status" json:"status"`
	Count  int              `db:"count" json:"count"`
}

// Pagination captures list paging metadata for response envelopes.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
