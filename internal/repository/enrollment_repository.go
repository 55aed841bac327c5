package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// ErrDuplicateEnrollment is returned when an insert violates the
// (student_id, course_id) uniqueness constraint. Concurrent enroll attempts
// for the same pair are resolved here: storage rejects the loser.
var ErrDuplicateEnrollment = errors.New("enrollment already exists for student and course")

const uniqueViolation = "23505"

const enrollmentColumns = `id, student_id, course_id, enrolled_at, status, is_active, notes, created_at, updated_at`

// QueryObserver records database round-trip latencies.
type QueryObserver interface {
	ObserveDBQuery(operation string, duration time.Duration)
}

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// WithObserver attaches query instrumentation and returns the repository.
func (r *EnrollmentRepository) WithObserver(observer QueryObserver) *EnrollmentRepository {
	r.observer = observer
	return r
}

func (r *EnrollmentRepository) observe(operation string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveDBQuery(operation, time.Since(start))
	}
}

// Create persists a new enrollment row. The surrogate id and bookkeeping
// timestamps are assigned by storage and written back into the struct.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	defer r.observe("create", time.Now())
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusEnrolled
	}
	enrollment.IsActive = true

	const query = `INSERT INTO enrollments (student_id, course_id, enrolled_at, status, is_active, notes)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, query,
		enrollment.StudentID,
		enrollment.CourseID,
		enrollment.EnrolledAt,
		enrollment.Status,
		enrollment.IsActive,
		enrollment.Notes,
	).Scan(&enrollment.ID, &enrollment.CreatedAt, &enrollment.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicateEnrollment
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	defer r.observe("find_by_id", time.Now())
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE id = $1`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindByStudentAndCourse returns the enrollment for a (student, course)
// pair regardless of status or active flag.
func (r *EnrollmentRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	defer r.observe("find_by_student_and_course", time.Now())
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE student_id = $1 AND course_id = $2`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Exists checks whether any row exists for the (student, course) pair.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, courseID int64) (bool, error) {
	defer r.observe("exists", time.Now())
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, studentID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// ListByStudent returns every enrollment row for a student.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.Enrollment, error) {
	defer r.observe("list_by_student", time.Now())
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE student_id = $1 ORDER BY enrolled_at`, enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByCourse returns every enrollment row for a course.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.Enrollment, error) {
	defer r.observe("list_by_course", time.Now())
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE course_id = $1 ORDER BY enrolled_at`, enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID); err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	return enrollments, nil
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	defer r.observe("list", time.Now())
	var conditions []string
	var args []interface{}

	if filter.StudentID > 0 {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID > 0 {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("enrolled_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("enrolled_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"enrolled_at": "enrolled_at",
		"student_id":  "student_id",
		"course_id":   "course_id",
		"status":      "status",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "enrolled_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM enrollments%s ORDER BY %s %s LIMIT %d OFFSET %d`,
		enrollmentColumns, clause, orderBy, order, size, offset)

	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM enrollments" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// UpdateCourse moves an enrollment to another course. The student id and
// original enrollment timestamp are never touched.
func (r *EnrollmentRepository) UpdateCourse(ctx context.Context, id, courseID int64) error {
	defer r.observe("update_course", time.Now())
	const query = `UPDATE enrollments SET course_id = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, courseID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicateEnrollment
		}
		return fmt.Errorf("update enrollment course: %w", err)
	}
	return nil
}

// SetStatus updates the lifecycle state and active flag.
func (r *EnrollmentRepository) SetStatus(ctx context.Context, id int64, status models.EnrollmentStatus, active bool) error {
	defer r.observe("set_status", time.Now())
	const query = `UPDATE enrollments SET status = $2, is_active = $3, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, active); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}

// SoftDelete marks the row inactive and appends the reason to notes so the
// withdrawal history is retained.
func (r *EnrollmentRepository) SoftDelete(ctx context.Context, id int64, status models.EnrollmentStatus, reason string) error {
	defer r.observe("soft_delete", time.Now())
	const query = `UPDATE enrollments
        SET status = $2, is_active = FALSE,
            notes = LEFT(COALESCE(notes || E'\n', '') || $3, 500),
            updated_at = NOW()
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, reason); err != nil {
		return fmt.Errorf("soft delete enrollment: %w", err)
	}
	return nil
}

// Delete removes the row permanently.
func (r *EnrollmentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	defer r.observe("delete", time.Now())
	const query = `DELETE FROM enrollments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete enrollment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete enrollment rows: %w", err)
	}
	return affected > 0, nil
}

// CountByCourse returns the total enrollment count for a course. This is the
// authoritative figure pushed to the course service after writes.
func (r *EnrollmentRepository) CountByCourse(ctx context.Context, courseID int64) (int, error) {
	defer r.observe("count_by_course", time.Now())
	const query = `SELECT COUNT(*) FROM enrollments WHERE course_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, courseID); err != nil {
		return 0, fmt.Errorf("count course enrollments: %w", err)
	}
	return total, nil
}

// CountActiveByCourse counts only rows still marked active.
func (r *EnrollmentRepository) CountActiveByCourse(ctx context.Context, courseID int64) (int, error) {
	defer r.observe("count_active_by_course", time.Now())
	const query = `SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND is_active = TRUE`
	var total int
	if err := r.db.GetContext(ctx, &total, query, courseID); err != nil {
		return 0, fmt.Errorf("count active course enrollments: %w", err)
	}
	return total, nil
}

// ListByStatus returns all enrollments in the given lifecycle state.
func (r *EnrollmentRepository) ListByStatus(ctx context.Context, status models.EnrollmentStatus) ([]models.Enrollment, error) {
	defer r.observe("list_by_status", time.Now())
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE status = $1 ORDER BY enrolled_at`, enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, status); err != nil {
		return nil, fmt.Errorf("list enrollments by status: %w", err)
	}
	return enrollments, nil
}

// ListByDateRange returns enrollments whose enrollment timestamp falls in
// [from, to].
func (r *EnrollmentRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]models.Enrollment, error) {
	defer r.observe("list_by_date_range", time.Now())
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE enrolled_at >= $1 AND enrolled_at <= $2 ORDER BY enrolled_at`, enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, from, to); err != nil {
		return nil, fmt.Errorf("list enrollments by date range: %w", err)
	}
	return enrollments, nil
}

// StatusBreakdown aggregates row counts per lifecycle state for a course.
func (r *EnrollmentRepository) StatusBreakdown(ctx context.Context, courseID int64) ([]models.StatusCount, error) {
	defer r.observe("status_breakdown", time.Now())
	const query = `SELECT status, COUNT(*) AS count FROM enrollments WHERE course_id = $1 GROUP BY status ORDER BY status`
	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query, courseID); err != nil {
		return nil, fmt.Errorf("status breakdown: %w", err)
	}
	return counts, nil
}
