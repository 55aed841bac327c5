package dto

import "time"

// StudentInCourse is one roster entry. Entries whose identity lookup failed
// carry placeholder name fields and IsActive false so the roster stays fully
// enumerable.
type StudentInCourse struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	EnrollmentID int64     `json:"enrollment_id"`
	EnrolledAt   time.Time `json:"enrolled_at"`
	IsActive     bool      `json:"is_active"`
}

// CourseRoster lists every student enrolled in a course.
type CourseRoster struct {
	CourseID          int64             `json:"course_id"`
	CourseName        string            `json:"course_name"`
	CourseDescription string            `json:"course_description"`
	TeacherID         int64             `json:"teacher_id"`
	TotalEnrollments  int               `json:"total_enrollments"`
	TotalStudents     int               `json:"total_students"`
	Students          []StudentInCourse `json:"students"`
}

// StudentCourse is one entry of a student's enrollment listing. Courses the
// course service could not resolve appear as placeholders so the item count
// matches the rows considered.
type StudentCourse struct {
	EnrollmentID      int64     `json:"enrollment_id"`
	CourseID          int64     `json:"course_id"`
	CourseName        string    `json:"course_name"`
	CourseDescription string    `json:"course_description"`
	TeacherID         int64     `json:"teacher_id"`
	EnrolledAt        time.Time `json:"enrolled_at"`
	TotalEnrollments  int       `json:"total_enrollments"`
}

// StudentEnrollments lists the courses a student is enrolled in.
type StudentEnrollments struct {
	StudentID    int64           `json:"student_id"`
	TotalCourses int             `json:"total_courses"`
	Courses      []StudentCourse `json:"courses"`
}
