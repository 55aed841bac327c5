package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/repository"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

type enrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	FindByID(ctx context.Context, id int64) (*models.Enrollment, error)
	FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.Enrollment, error)
	ListByCourse(ctx context.Context, courseID int64) ([]models.Enrollment, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error)
	UpdateCourse(ctx context.Context, id, courseID int64) error
	SetStatus(ctx context.Context, id int64, status models.EnrollmentStatus, active bool) error
	SoftDelete(ctx context.Context, id int64, status models.EnrollmentStatus, reason string) error
	Delete(ctx context.Context, id int64) (bool, error)
	CountByCourse(ctx context.Context, courseID int64) (int, error)
	CountActiveByCourse(ctx context.Context, courseID int64) (int, error)
	StatusBreakdown(ctx context.Context, courseID int64) ([]models.StatusCount, error)
}

type identityClient interface {
	GetPrincipal(ctx context.Context, token string, id int64) (*models.Principal, bool)
	IsStudent(ctx context.Context, token string, id int64) bool
}

type courseClient interface {
	GetCourse(ctx context.Context, token string, id int64) (*models.Course, bool)
	SyncEnrollmentCount(ctx context.Context, token string, courseID int64, total int) bool
}

type resyncScheduler interface {
	EnqueueResync(courseID int64, token string)
}

type statsInvalidator interface {
	InvalidateCourse(ctx context.Context, courseID int64)
}

// EnrollmentService orchestrates the enrollment workflows. Every operation
// takes the caller as an explicit Actor; nothing is read from ambient
// request state.
type EnrollmentService struct {
	repo      enrollmentRepository
	identity  identityClient
	courses   courseClient
	resync    resyncScheduler
	stats     statsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, identity identityClient, courses courseClient, resync resyncScheduler, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, identity: identity, courses: courses, resync: resync, validator: validate, logger: logger}
}

// WithStatsInvalidator makes write paths drop the cached course aggregates.
func (s *EnrollmentService) WithStatsInvalidator(stats statsInvalidator) *EnrollmentService {
	s.stats = stats
	return s
}

func (s *EnrollmentService) invalidateStats(ctx context.Context, courseID int64) {
	if s.stats != nil {
		s.stats.InvalidateCourse(ctx, courseID)
	}
}

// actorID parses the token subject into a positive integer principal id.
func actorID(actor models.Actor) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(actor.Subject), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrUnauthenticated, "invalid token")
	}
	return id, nil
}

func conflictWithExisting(existing *models.Enrollment) *appErrors.Error {
	conflict := appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this course")
	return appErrors.WithMeta(conflict, map[string]interface{}{
		"enrollment_id": existing.ID,
		"enrolled_at":   existing.EnrolledAt,
	})
}

// Enroll registers the calling student in a course. The checks run in strict
// order and each failure short-circuits with its own outcome kind.
func (s *EnrollmentService) Enroll(ctx context.Context, actor models.Actor, req dto.EnrollRequest) (*dto.EnrollmentConfirmation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	callerID, err := actorID(actor)
	if err != nil {
		return nil, err
	}

	// The token's role claim is authoritative. The identity service is
	// consulted as an advisory cross-check only; it can be down or disagree
	// without blocking the enrollment.
	if actor.Role != models.RoleStudent {
		forbidden := appErrors.Clone(appErrors.ErrForbidden, "only students can enroll in courses")
		return nil, appErrors.WithDetails(forbidden, fmt.Sprintf("current role: %s", actor.Role))
	}
	if !s.identity.IsStudent(ctx, actor.Token, callerID) {
		s.logger.Warn("identity service disagrees with token role claim",
			zap.Int64("student_id", callerID))
	}

	course, found := s.courses.GetCourse(ctx, actor.Token, req.CourseID)
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course with id %d not found", req.CourseID))
	}

	existing, err := s.repo.FindByStudentAndCourse(ctx, callerID, req.CourseID)
	if err == nil {
		return nil, conflictWithExisting(existing)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		s.logger.Error("enrollment pre-check failed", zap.Int64("student_id", callerID), zap.Int64("course_id", req.CourseID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}

	enrollment := &models.Enrollment{
		StudentID:  callerID,
		CourseID:   req.CourseID,
		EnrolledAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicateEnrollment) {
			// Lost a race with a concurrent enroll for the same pair; report
			// the winner's row exactly like the pre-check path.
			winner, findErr := s.repo.FindByStudentAndCourse(ctx, callerID, req.CourseID)
			if findErr == nil {
				return nil, conflictWithExisting(winner)
			}
			return nil, appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this course")
		}
		s.logger.Error("enrollment insert failed", zap.Int64("student_id", callerID), zap.Int64("course_id", req.CourseID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	// The enrollment is committed. Everything below is best-effort: the
	// course service's subscriber count is a cached projection that
	// tolerates transient staleness.
	s.pushCourseCount(ctx, actor.Token, req.CourseID)

	return &dto.EnrollmentConfirmation{
		Message:      "Enrollment successful",
		EnrollmentID: enrollment.ID,
		StudentID:    callerID,
		CourseID:     req.CourseID,
		CourseName:   course.Title,
		EnrolledAt:   enrollment.EnrolledAt,
	}, nil
}

// pushCourseCount recomputes the authoritative total and notifies the course
// service. Failures are logged and handed to the background reconciler.
func (s *EnrollmentService) pushCourseCount(ctx context.Context, token string, courseID int64) {
	s.invalidateStats(ctx, courseID)

	total, err := s.repo.CountByCourse(ctx, courseID)
	if err != nil {
		s.logger.Warn("course count recompute failed", zap.Int64("course_id", courseID), zap.Error(err))
		if s.resync != nil {
			s.resync.EnqueueResync(courseID, token)
		}
		return
	}
	if !s.courses.SyncEnrollmentCount(ctx, token, courseID, total) {
		s.logger.Warn("course count sync failed", zap.Int64("course_id", courseID), zap.Int("total", total))
		if s.resync != nil {
			s.resync.EnqueueResync(courseID, token)
		}
	}
}

// ListCourseRoster returns every distinct student enrolled in a course.
func (s *EnrollmentService) ListCourseRoster(ctx context.Context, actor models.Actor, courseID int64) (*dto.CourseRoster, error) {
	callerID, err := actorID(actor)
	if err != nil {
		return nil, err
	}

	if actor.Role != models.RoleAdmin && actor.Role != models.RoleTeacher {
		forbidden := appErrors.Clone(appErrors.ErrForbidden, "only administrators and teachers can view course students")
		return nil, appErrors.WithDetails(forbidden, fmt.Sprintf("current role: %s, required roles: Admin, Teacher", actor.Role))
	}

	course, found := s.courses.GetCourse(ctx, actor.Token, courseID)
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course with id %d not found", courseID))
	}

	if actor.Role == models.RoleTeacher && callerID != course.TeacherID {
		forbidden := appErrors.Clone(appErrors.ErrForbidden, "teachers can only view students from their own courses")
		return nil, appErrors.WithDetails(forbidden, fmt.Sprintf("course teacher id: %d", course.TeacherID))
	}

	enrollments, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("roster load failed", zap.Int64("course_id", courseID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course roster")
	}

	// One roster entry per distinct student; the first enrollment row wins
	// for the enrollment id and timestamp.
	firstByStudent := make(map[int64]models.Enrollment, len(enrollments))
	var order []int64
	for _, e := range enrollments {
		if _, seen := firstByStudent[e.StudentID]; !seen {
			firstByStudent[e.StudentID] = e
			order = append(order, e.StudentID)
		}
	}

	students := make([]dto.StudentInCourse, 0, len(order))
	for _, studentID := range order {
		enrollment := firstByStudent[studentID]
		principal, resolved := s.identity.GetPrincipal(ctx, actor.Token, studentID)
		if !resolved {
			// Keep the roster fully enumerable: an unresolved student is
			// represented by a placeholder, never dropped.
			s.logger.Warn("student lookup failed for roster", zap.Int64("student_id", studentID), zap.Int64("course_id", courseID))
			students = append(students, dto.StudentInCourse{
				ID:           studentID,
				FirstName:    "User",
				LastName:     "Not Found",
				FullName:     "User Not Found",
				Email:        "N/A",
				Role:         "Unknown",
				EnrollmentID: enrollment.ID,
				EnrolledAt:   enrollment.EnrolledAt,
				IsActive:     false,
			})
			continue
		}
		students = append(students, dto.StudentInCourse{
			ID:           principal.ID,
			FirstName:    principal.FirstName,
			LastName:     principal.LastName,
			FullName:     principal.FullName(),
			Email:        principal.Email,
			Role:         principal.RoleName(),
			EnrollmentID: enrollment.ID,
			EnrolledAt:   enrollment.EnrolledAt,
			IsActive:     principal.IsActive,
		})
	}

	sort.SliceStable(students, func(i, j int) bool {
		return students[i].FirstName < students[j].FirstName
	})

	return &dto.CourseRoster{
		CourseID:          courseID,
		CourseName:        course.Title,
		CourseDescription: course.Description,
		TeacherID:         course.TeacherID,
		TotalEnrollments:  len(enrollments),
		TotalStudents:     len(students),
		Students:          students,
	}, nil
}

// ListStudentEnrollments returns the courses a student is enrolled in,
// scoped to what the caller's role may see.
func (s *EnrollmentService) ListStudentEnrollments(ctx context.Context, actor models.Actor, studentID int64) (*dto.StudentEnrollments, error) {
	callerID, err := actorID(actor)
	if err != nil {
		return nil, err
	}

	if actor.Role == models.RoleStudent && callerID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students can only view their own enrollments")
	}

	enrollments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("student enrollments load failed", zap.Int64("student_id", studentID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student enrollments")
	}

	courses := make([]dto.StudentCourse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		course, found := s.courses.GetCourse(ctx, actor.Token, enrollment.CourseID)
		if !found {
			// A missing course never drops the enrollment; the placeholder
			// keeps the item count aligned with the rows considered.
			s.logger.Warn("course lookup failed for enrollment",
				zap.Int64("course_id", enrollment.CourseID),
				zap.Int64("enrollment_id", enrollment.ID))
			courses = append(courses, dto.StudentCourse{
				EnrollmentID:      enrollment.ID,
				CourseID:          enrollment.CourseID,
				CourseName:        "Course Not Found",
				CourseDescription: "Course data is not available",
				EnrolledAt:        enrollment.EnrolledAt,
			})
			continue
		}
		// Teachers see only the subset of courses they own.
		if actor.Role == models.RoleTeacher && callerID != course.TeacherID {
			continue
		}
		courses = append(courses, dto.StudentCourse{
			EnrollmentID:      enrollment.ID,
			CourseID:          course.ID,
			CourseName:        course.Title,
			CourseDescription: course.Description,
			TeacherID:         course.TeacherID,
			EnrolledAt:        enrollment.EnrolledAt,
			TotalEnrollments:  course.Subscribers,
		})
	}

	sort.SliceStable(courses, func(i, j int) bool {
		return courses[i].CourseName < courses[j].CourseName
	})

	return &dto.StudentEnrollments{
		StudentID:    studentID,
		TotalCourses: len(courses),
		Courses:      courses,
	}, nil
}

// Get returns a single enrollment enriched with external names. Admins can
// read any row; students only their own.
func (s *EnrollmentService) Get(ctx context.Context, actor models.Actor, id int64) (*dto.EnrollmentRead, error) {
	callerID, err := actorID(actor)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.findEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role != models.RoleAdmin && enrollment.StudentID != callerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to view this enrollment")
	}

	read := s.enrich(ctx, actor.Token, *enrollment)
	return &read, nil
}

// List returns enrollments matching the filter. Admin only.
func (s *EnrollmentService) List(ctx context.Context, actor models.Actor, filter models.EnrollmentFilter) ([]dto.EnrollmentRead, *models.Pagination, error) {
	if _, err := actorID(actor); err != nil {
		return nil, nil, err
	}
	if actor.Role != models.RoleAdmin {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can list enrollments")
	}

	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	reads := make([]dto.EnrollmentRead, 0, len(enrollments))
	for _, enrollment := range enrollments {
		reads = append(reads, s.enrich(ctx, actor.Token, enrollment))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return reads, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// UpdateCourse moves an enrollment to another course. Admin only; the
// student id and original enrollment timestamp never change.
func (s *EnrollmentService) UpdateCourse(ctx context.Context, actor models.Actor, id int64, req dto.UpdateEnrollmentRequest) (*dto.EnrollmentRead, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}
	if _, err := actorID(actor); err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can update enrollments")
	}

	enrollment, err := s.findEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, found := s.courses.GetCourse(ctx, actor.Token, req.CourseID); !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course with id %d not found", req.CourseID))
	}

	previousCourseID := enrollment.CourseID
	if err := s.repo.UpdateCourse(ctx, id, req.CourseID); err != nil {
		if errors.Is(err, repository.ErrDuplicateEnrollment) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in the target course")
		}
		s.logger.Error("enrollment update failed", zap.Int64("enrollment_id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}

	// Both projections drifted; repair each best-effort.
	if previousCourseID != req.CourseID {
		s.pushCourseCount(ctx, actor.Token, previousCourseID)
		s.pushCourseCount(ctx, actor.Token, req.CourseID)
	}

	return s.Get(ctx, actor, id)
}

// Withdraw marks an enrollment withdrawn, keeping the row. The reason is
// appended to the notes so history survives.
func (s *EnrollmentService) Withdraw(ctx context.Context, actor models.Actor, id int64, req dto.WithdrawRequest) (*dto.EnrollmentRead, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid withdraw payload")
	}
	callerID, err := actorID(actor)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.findEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role != models.RoleAdmin && enrollment.StudentID != callerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to withdraw this enrollment")
	}
	if enrollment.Status == models.EnrollmentStatusWithdrawn {
		return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment already withdrawn")
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "no reason given"
	}
	note := fmt.Sprintf("[%s] withdrawn by %s: %s", time.Now().UTC().Format(time.RFC3339), actor.Role, reason)

	if err := s.repo.SoftDelete(ctx, id, models.EnrollmentStatusWithdrawn, note); err != nil {
		s.logger.Error("withdraw failed", zap.Int64("enrollment_id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw enrollment")
	}
	s.invalidateStats(ctx, enrollment.CourseID)

	return s.Get(ctx, actor, id)
}

// Reactivate turns a withdrawn or suspended enrollment back to Enrolled on
// the same row. This is the sanctioned re-enrollment path: Enroll itself
// always conflicts while any row for the pair exists.
func (s *EnrollmentService) Reactivate(ctx context.Context, actor models.Actor, id int64) (*dto.EnrollmentRead, error) {
	callerID, err := actorID(actor)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.findEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role != models.RoleAdmin && enrollment.StudentID != callerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to reactivate this enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusWithdrawn && enrollment.Status != models.EnrollmentStatusSuspended {
		conflict := appErrors.Clone(appErrors.ErrConflict, "enrollment cannot be reactivated")
		return nil, appErrors.WithDetails(conflict, fmt.Sprintf("current status: %s", enrollment.Status))
	}

	if err := s.repo.SetStatus(ctx, id, models.EnrollmentStatusEnrolled, true); err != nil {
		s.logger.Error("reactivate failed", zap.Int64("enrollment_id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reactivate enrollment")
	}
	s.invalidateStats(ctx, enrollment.CourseID)

	return s.Get(ctx, actor, id)
}

// Complete marks an enrollment finished. Admin, or the teacher owning the
// course.
func (s *EnrollmentService) Complete(ctx context.Context, actor models.Actor, id int64) (*dto.EnrollmentRead, error) {
	callerID, err := actorID(actor)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.findEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleTeacher:
		course, found := s.courses.GetCourse(ctx, actor.Token, enrollment.CourseID)
		if !found || course.TeacherID != callerID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "teachers can only complete enrollments in their own courses")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to complete enrollments")
	}

	if enrollment.Status != models.EnrollmentStatusEnrolled {
		conflict := appErrors.Clone(appErrors.ErrConflict, "only active enrollments can be completed")
		return nil, appErrors.WithDetails(conflict, fmt.Sprintf("current status: %s", enrollment.Status))
	}

	if err := s.repo.SetStatus(ctx, id, models.EnrollmentStatusCompleted, true); err != nil {
		s.logger.Error("complete failed", zap.Int64("enrollment_id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete enrollment")
	}
	s.invalidateStats(ctx, enrollment.CourseID)

	return s.Get(ctx, actor, id)
}

// Delete removes an enrollment permanently and resyncs the course count.
// Admin only.
func (s *EnrollmentService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if _, err := actorID(actor); err != nil {
		return err
	}
	if actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only administrators can delete enrollments")
	}

	enrollment, err := s.findEnrollment(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("delete failed", zap.Int64("enrollment_id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}

	s.pushCourseCount(ctx, actor.Token, enrollment.CourseID)
	return nil
}

// DebugAuth echoes the caller's validated claims. Admin only.
func (s *EnrollmentService) DebugAuth(claims *models.JWTClaims) (*dto.AuthDebug, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthenticated
	}
	if claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "debug endpoints are restricted to administrators")
	}

	debug := &dto.AuthDebug{
		Authenticated: true,
		UserID:        claims.UserID,
		Role:          string(claims.Role),
		Email:         claims.Email,
		FullName:      claims.FullName,
	}
	if claims.ExpiresAt != nil {
		expires := claims.ExpiresAt.Time
		debug.ExpiresAt = &expires
	}
	return debug, nil
}

// DebugExternal echoes the raw identity-adapter view of a user. Admin only.
func (s *EnrollmentService) DebugExternal(ctx context.Context, actor models.Actor, userID int64) (*dto.ExternalDebug, error) {
	if _, err := actorID(actor); err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "debug endpoints are restricted to administrators")
	}

	principal, found := s.identity.GetPrincipal(ctx, actor.Token, userID)
	return &dto.ExternalDebug{
		UserFound:          found,
		User:               principal,
		IsStudentByService: s.identity.IsStudent(ctx, actor.Token, userID),
	}, nil
}

func (s *EnrollmentService) findEnrollment(ctx context.Context, id int64) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		s.logger.Error("enrollment load failed", zap.Int64("enrollment_id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// enrich resolves external names for a row, degrading to empty fields when
// the sibling services cannot answer.
func (s *EnrollmentService) enrich(ctx context.Context, token string, enrollment models.Enrollment) dto.EnrollmentRead {
	read := dto.EnrollmentRead{Enrollment: enrollment}
	if principal, found := s.identity.GetPrincipal(ctx, token, enrollment.StudentID); found {
		read.StudentName = principal.FullName()
	}
	if course, found := s.courses.GetCourse(ctx, token, enrollment.CourseID); found {
		read.CourseTitle = course.Title
	}
	return read
}
