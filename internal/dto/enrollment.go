package dto

import (
	"time"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// EnrollRequest is the enroll endpoint payload. The student id is never part
// of the body; it is always taken from the caller's token.
type EnrollRequest struct {
	CourseID int64 `json:"course_id" validate:"required,gt=0"`
}

// EnrollmentConfirmation is returned after a successful enrollment. It is
// denormalized so clients can render it without a follow-up call.
type EnrollmentConfirmation struct {
	Message      string    `json:"message"`
	EnrollmentID int64     `json:"enrollment_id"`
	StudentID    int64     `json:"student_id"`
	CourseID     int64     `json:"course_id"`
	CourseName   string    `json:"course_name"`
	EnrolledAt   time.Time `json:"enrolled_at"`
}

// UpdateEnrollmentRequest moves an enrollment to another course.
type UpdateEnrollmentRequest struct {
	CourseID int64 `json:"course_id" validate:"required,gt=0"`
}

// WithdrawRequest carries an optional reason appended to the row's notes.
type WithdrawRequest struct {
	Reason string `json:"reason" validate:"max=400"`
}

// EnrollmentRead is an enrollment enriched with the external names a client
// would otherwise have to resolve itself.
type EnrollmentRead struct {
	models.Enrollment
	StudentName string `json:"student_name,omitempty"`
	CourseTitle string `json:"course_title,omitempty"`
}
