package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/repository"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

type fakeEnrollmentRepo struct {
	byID          map[int64]*models.Enrollment
	byPair        map[[2]int64]*models.Enrollment
	byStudent     map[int64][]models.Enrollment
	byCourse      map[int64][]models.Enrollment
	listResult    []models.Enrollment
	listTotal     int
	counts        map[int64]int
	activeCounts  map[int64]int
	breakdown     []models.StatusCount
	createErr     error
	countErr      error
	pairMissOnce  bool
	created       []*models.Enrollment
	statusUpdates map[int64]models.EnrollmentStatus
	softDeletes   map[int64]string
	deleted       []int64
	courseUpdates map[int64]int64
	nextID        int64
}

func newFakeRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{
		byID:          map[int64]*models.Enrollment{},
		byPair:        map[[2]int64]*models.Enrollment{},
		byStudent:     map[int64][]models.Enrollment{},
		byCourse:      map[int64][]models.Enrollment{},
		counts:        map[int64]int{},
		activeCounts:  map[int64]int{},
		statusUpdates: map[int64]models.EnrollmentStatus{},
		softDeletes:   map[int64]string{},
		courseUpdates: map[int64]int64{},
		nextID:        100,
	}
}

func (f *fakeEnrollmentRepo) add(e models.Enrollment) *models.Enrollment {
	copied := e
	f.byID[e.ID] = &copied
	f.byPair[[2]int64{e.StudentID, e.CourseID}] = &copied
	f.byStudent[e.StudentID] = append(f.byStudent[e.StudentID], copied)
	f.byCourse[e.CourseID] = append(f.byCourse[e.CourseID], copied)
	return &copied
}

func (f *fakeEnrollmentRepo) Create(ctx context.Context, e *models.Enrollment) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.byPair[[2]int64{e.StudentID, e.CourseID}]; exists {
		return repository.ErrDuplicateEnrollment
	}
	f.nextID++
	e.ID = f.nextID
	e.Status = models.EnrollmentStatusEnrolled
	e.IsActive = true
	f.created = append(f.created, e)
	f.add(*e)
	return nil
}

func (f *fakeEnrollmentRepo) FindByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollmentRepo) FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	if f.pairMissOnce {
		f.pairMissOnce = false
		return nil, sql.ErrNoRows
	}
	if e, ok := f.byPair[[2]int64{studentID, courseID}]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollmentRepo) ListByStudent(ctx context.Context, studentID int64) ([]models.Enrollment, error) {
	return f.byStudent[studentID], nil
}

func (f *fakeEnrollmentRepo) ListByCourse(ctx context.Context, courseID int64) ([]models.Enrollment, error) {
	return f.byCourse[courseID], nil
}

func (f *fakeEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	return f.listResult, f.listTotal, nil
}

func (f *fakeEnrollmentRepo) UpdateCourse(ctx context.Context, id, courseID int64) error {
	f.courseUpdates[id] = courseID
	if e, ok := f.byID[id]; ok {
		e.CourseID = courseID
	}
	return nil
}

func (f *fakeEnrollmentRepo) SetStatus(ctx context.Context, id int64, status models.EnrollmentStatus, active bool) error {
	f.statusUpdates[id] = status
	if e, ok := f.byID[id]; ok {
		e.Status = status
		e.IsActive = active
	}
	return nil
}

func (f *fakeEnrollmentRepo) SoftDelete(ctx context.Context, id int64, status models.EnrollmentStatus, reason string) error {
	f.softDeletes[id] = reason
	if e, ok := f.byID[id]; ok {
		e.Status = status
		e.IsActive = false
	}
	return nil
}

func (f *fakeEnrollmentRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := f.byID[id]; !ok {
		return false, nil
	}
	f.deleted = append(f.deleted, id)
	delete(f.byID, id)
	return true, nil
}

func (f *fakeEnrollmentRepo) CountByCourse(ctx context.Context, courseID int64) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.counts[courseID], nil
}

func (f *fakeEnrollmentRepo) CountActiveByCourse(ctx context.Context, courseID int64) (int, error) {
	return f.activeCounts[courseID], nil
}

func (f *fakeEnrollmentRepo) StatusBreakdown(ctx context.Context, courseID int64) ([]models.StatusCount, error) {
	return f.breakdown, nil
}

type fakeIdentity struct {
	principals map[int64]*models.Principal
	isStudent  map[int64]bool
}

func (f *fakeIdentity) GetPrincipal(ctx context.Context, token string, id int64) (*models.Principal, bool) {
	p, ok := f.principals[id]
	return p, ok
}

func (f *fakeIdentity) IsStudent(ctx context.Context, token string, id int64) bool {
	return f.isStudent[id]
}

type fakeCourses struct {
	courses     map[int64]*models.Course
	syncOK      bool
	syncCalls   []int64
	syncTotals  []int
	syncTokens  []string
	lastCourse  int64
	courseCalls int
}

func (f *fakeCourses) GetCourse(ctx context.Context, token string, id int64) (*models.Course, bool) {
	f.courseCalls++
	f.lastCourse = id
	c, ok := f.courses[id]
	return c, ok
}

func (f *fakeCourses) SyncEnrollmentCount(ctx context.Context, token string, courseID int64, total int) bool {
	f.syncCalls = append(f.syncCalls, courseID)
	f.syncTotals = append(f.syncTotals, total)
	f.syncTokens = append(f.syncTokens, token)
	return f.syncOK
}

type fakeResync struct {
	enqueued []int64
}

func (f *fakeResync) EnqueueResync(courseID int64, token string) {
	f.enqueued = append(f.enqueued, courseID)
}

type fakeStatsInvalidator struct {
	invalidated []int64
}

func (f *fakeStatsInvalidator) InvalidateCourse(ctx context.Context, courseID int64) {
	f.invalidated = append(f.invalidated, courseID)
}

func studentActor(id string) models.Actor {
	return models.Actor{Subject: id, Role: models.RoleStudent, Token: "token"}
}

func adminActor() models.Actor {
	return models.Actor{Subject: "1", Role: models.RoleAdmin, Token: "token"}
}

func newTestService(repo *fakeEnrollmentRepo, identity *fakeIdentity, courses *fakeCourses, resync *fakeResync) *EnrollmentService {
	return NewEnrollmentService(repo, identity, courses, resync, validator.New(), zap.NewNop())
}

func TestEnrollSuccess(t *testing.T) {
	repo := newFakeRepo()
	repo.counts[42] = 1
	identity := &fakeIdentity{isStudent: map[int64]bool{7: true}}
	courses := &fakeCourses{courses: map[int64]*models.Course{42: {ID: 42, Title: "Algebra"}}, syncOK: true}
	resync := &fakeResync{}
	svc := newTestService(repo, identity, courses, resync)

	res, err := svc.Enroll(context.Background(), studentActor("7"), dto.EnrollRequest{CourseID: 42})
	require.NoError(t, err)
	require.Equal(t, "Enrollment successful", res.Message)
	require.Equal(t, int64(7), res.StudentID)
	require.Equal(t, "Algebra", res.CourseName)
	require.NotZero(t, res.EnrollmentID)

	require.Equal(t, []int64{42}, courses.syncCalls)
	require.Equal(t, []int{1}, courses.syncTotals)
	require.Empty(t, resync.enqueued)
}

func TestEnrollInvalidSubject(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeIdentity{}, &fakeCourses{}, &fakeResync{})

	_, err := svc.Enroll(context.Background(), studentActor("not-a-number"), dto.EnrollRequest{CourseID: 42})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrUnauthenticated.Code, appErr.Code)
}

func TestEnrollNonStudentForbidden(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeIdentity{}, &fakeCourses{}, &fakeResync{})

	actor := models.Actor{Subject: "7", Role: models.RoleTeacher, Token: "token"}
	_, err := svc.Enroll(context.Background(), actor, dto.EnrollRequest{CourseID: 42})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestEnrollCourseNotFound(t *testing.T) {
	identity := &fakeIdentity{isStudent: map[int64]bool{7: true}}
	svc := newTestService(newFakeRepo(), identity, &fakeCourses{courses: map[int64]*models.Course{}}, &fakeResync{})

	_, err := svc.Enroll(context.Background(), studentActor("7"), dto.EnrollRequest{CourseID: 42})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestEnrollConflictCarriesExistingRow(t *testing.T) {
	repo := newFakeRepo()
	enrolledAt := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	repo.add(models.Enrollment{ID: 9, StudentID: 7, CourseID: 42, EnrolledAt: enrolledAt, Status: models.EnrollmentStatusWithdrawn})
	identity := &fakeIdentity{isStudent: map[int64]bool{7: true}}
	courses := &fakeCourses{courses: map[int64]*models.Course{42: {ID: 42, Title: "Algebra"}}}
	svc := newTestService(repo, identity, courses, &fakeResync{})

	_, err := svc.Enroll(context.Background(), studentActor("7"), dto.EnrollRequest{CourseID: 42})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	require.Equal(t, int64(9), appErr.Meta["enrollment_id"])
	require.Equal(t, enrolledAt, appErr.Meta["enrolled_at"])
}

func TestEnrollRaceLoserGetsConflict(t *testing.T) {
	repo := newFakeRepo()
	repo.add(models.Enrollment{ID: 11, StudentID: 7, CourseID: 42, EnrolledAt: time.Now().UTC()})
	// The pre-check misses, the insert hits the unique constraint, and the
	// re-fetch finds the winner's row.
	repo.pairMissOnce = true
	repo.createErr = repository.ErrDuplicateEnrollment

	identity := &fakeIdentity{isStudent: map[int64]bool{7: true}}
	courses := &fakeCourses{courses: map[int64]*models.Course{42: {ID: 42, Title: "Algebra"}}}
	svc := newTestService(repo, identity, courses, &fakeResync{})

	_, err := svc.Enroll(context.Background(), studentActor("7"), dto.EnrollRequest{CourseID: 42})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	require.Equal(t, int64(11), appErr.Meta["enrollment_id"])
}

func TestEnrollSyncFailureSchedulesResync(t *testing.T) {
	repo := newFakeRepo()
	repo.counts[42] = 3
	identity := &fakeIdentity{isStudent: map[int64]bool{7: true}}
	courses := &fakeCourses{courses: map[int64]*models.Course{42: {ID: 42, Title: "Algebra"}}, syncOK: false}
	resync := &fakeResync{}
	svc := newTestService(repo, identity, courses, resync)

	res, err := svc.Enroll(context.Background(), studentActor("7"), dto.EnrollRequest{CourseID: 42})
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, []int64{42}, resync.enqueued)
}

func TestEnrollIdentityDisagreementIsAdvisory(t *testing.T) {
	repo := newFakeRepo()
	identity := &fakeIdentity{isStudent: map[int64]bool{}}
	courses := &fakeCourses{courses: map[int64]*models.Course{42: {ID: 42, Title: "Algebra"}}, syncOK: true}
	svc := newTestService(repo, identity, courses, &fakeResync{})

	_, err := svc.Enroll(context.Background(), studentActor("7"), dto.EnrollRequest{CourseID: 42})
	require.NoError(t, err)
}

func TestListCourseRosterPlaceholdersAndSorting(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now().UTC()
	repo.byCourse[42] = []models.Enrollment{
		{ID: 1, StudentID: 7, CourseID: 42, EnrolledAt: now},
		{ID: 2, StudentID: 8, CourseID: 42, EnrolledAt: now},
		{ID: 3, StudentID: 9, CourseID: 42, EnrolledAt: now},
	}
	identity := &fakeIdentity{principals: map[int64]*models.Principal{
		7: {ID: 7, FirstName: "Zoe", LastName: "Diaz", Email: "zoe@example.com", Role: models.RoleCodeStudent, IsActive: true},
		9: {ID: 9, FirstName: "Amir", LastName: "Khan", Email: "amir@example.com", Role: models.RoleCodeStudent, IsActive: true},
	}}
	courses := &fakeCourses{courses: map[int64]*models.Course{42: {ID: 42, Title: "Algebra", TeacherID: 5}}}
	svc := newTestService(repo, identity, courses, &fakeResync{})

	roster, err := svc.ListCourseRoster(context.Background(), adminActor(), 42)
	require.NoError(t, err)
	require.Equal(t, 3, roster.TotalEnrollments)
	require.Equal(t, 3, roster.TotalStudents)

	// Sorted by first name; the unresolved student 8 becomes a placeholder.
	require.Equal(t, "Amir", roster.Students[0].FirstName)
	require.Equal(t, "User Not Found", roster.Students[1].FullName)
	require.Equal(t, "N/A", roster.Students[1].Email)
	require.Equal(t, "Unknown", roster.Students[1].Role)
	require.False(t, roster.Students[1].IsActive)
	require.Equal(t, "Zoe", roster.Students[2].FirstName)
}

func TestListCourseRosterTeacherOwnershipEnforced(t *testing.T) {
	repo := newFakeRepo()
	courses := &fakeCourses{courses: map[int64]*models.Course{42: {ID: 42, Title: "Algebra", TeacherID: 5}}}
	svc := newTestService(repo, &fakeIdentity{}, courses, &fakeResync{})

	otherTeacher := models.Actor{Subject: "6", Role: models.RoleTeacher, Token: "token"}
	_, err := svc.ListCourseRoster(context.Background(), otherTeacher, 42)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	owner := models.Actor{Subject: "5", Role: models.RoleTeacher, Token: "token"}
	roster, err := svc.ListCourseRoster(context.Background(), owner, 42)
	require.NoError(t, err)
	require.Equal(t, int64(42), roster.CourseID)
}

func TestListStudentEnrollmentsPlaceholderAndTeacherScope(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now().UTC()
	repo.byStudent[7] = []models.Enrollment{
		{ID: 1, StudentID: 7, CourseID: 42, EnrolledAt: now},
		{ID: 2, StudentID: 7, CourseID: 43, EnrolledAt: now},
		{ID: 3, StudentID: 7, CourseID: 44, EnrolledAt: now},
	}
	courses := &fakeCourses{courses: map[int64]*models.Course{
		42: {ID: 42, Title: "Algebra", TeacherID: 5},
		43: {ID: 43, Title: "Biology", TeacherID: 6},
	}}
	svc := newTestService(repo, &fakeIdentity{}, courses, &fakeResync{})

	// A student sees all their enrollments, missing courses as placeholders.
	res, err := svc.ListStudentEnrollments(context.Background(), studentActor("7"), 7)
	require.NoError(t, err)
	require.Equal(t, 3, res.TotalCourses)
	names := []string{res.Courses[0].CourseName, res.Courses[1].CourseName, res.Courses[2].CourseName}
	require.Contains(t, names, "Course Not Found")

	// A teacher sees only the courses they own plus unresolvable rows.
	teacher := models.Actor{Subject: "5", Role: models.RoleTeacher, Token: "token"}
	res, err = svc.ListStudentEnrollments(context.Background(), teacher, 7)
	require.NoError(t, err)
	require.Equal(t, 2, res.TotalCourses)
}

func TestListStudentEnrollmentsSelfOnly(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeIdentity{}, &fakeCourses{}, &fakeResync{})

	_, err := svc.ListStudentEnrollments(context.Background(), studentActor("7"), 8)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestGetOwnershipRules(t *testing.T) {
	repo := newFakeRepo()
	repo.add(models.Enrollment{ID: 1, StudentID: 7, CourseID: 42, EnrolledAt: time.Now().UTC()})
	svc := newTestService(repo, &fakeIdentity{}, &fakeCourses{}, &fakeResync{})

	_, err := svc.Get(context.Background(), studentActor("7"), 1)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), studentActor("8"), 1)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	_, err = svc.Get(context.Background(), adminActor(), 1)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), adminActor(), 999)
	appErr = appErrors.FromError(err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestListAdminOnly(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeIdentity{}, &fakeCourses{}, &fakeResync{})

	_, _, err := svc.List(context.Background(), studentActor("7"), models.EnrollmentFilter{})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestUpdateCourseResyncsBothCourses(t *testing.T) {
	repo := newFakeRepo()
	repo.add(models.Enrollment{ID: 1, StudentID: 7, CourseID: 42, EnrolledAt: time.Now().UTC()})
	repo.counts[42] = 1
	repo.counts[43] = 2
	courses := &fakeCourses{courses: map[int64]*models.Course{
		42: {ID: 42, Title: "Algebra"},
		43: {ID: 43, Title: "Biology"},
	}, syncOK: true}
	svc := newTestService(repo, &fakeIdentity{}, courses, &fakeResync{})

	res, err := svc.UpdateCourse(context.Background(), adminActor(), 1, dto.UpdateEnrollmentRequest{CourseID: 43})
	require.NoError(t, err)
	require.Equal(t, int64(43), res.CourseID)
	require.Equal(t, []int64{42, 43}, courses.syncCalls)
}

func TestWithdrawAppendsReasonAndConflictsWhenRepeated(t *testing.T) {
	repo := newFakeRepo()
	repo.add(models.Enrollment{ID: 1, StudentID: 7, CourseID: 42, Status: models.EnrollmentStatusEnrolled, EnrolledAt: time.Now().UTC()})
	svc := newTestService(repo, &fakeIdentity{}, &fakeCourses{}, &fakeResync{})

	res, err := svc.Withdraw(context.Background(), studentActor("7"), 1, dto.WithdrawRequest{Reason: "moving away"})
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStatusWithdrawn, res.Status)
	require.Contains(t, repo.softDeletes[1], "moving away")

	_, err = svc.Withdraw(context.Background(), studentActor("7"), 1, dto.WithdrawRequest{})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestReactivateTransitions(t *testing.T) {
	repo := newFakeRepo()
	repo.add(models.Enrollment{ID: 1, StudentID: 7, CourseID: 42, Status: models.EnrollmentStatusWithdrawn, EnrolledAt: time.Now().UTC()})
	repo.add(models.Enrollment{ID: 2, StudentID: 7, CourseID: 43, Status: models.EnrollmentStatusCompleted, EnrolledAt: time.Now().UTC()})
	svc := newTestService(repo, &fakeIdentity{}, &fakeCourses{}, &fakeResync{})

	res, err := svc.Reactivate(context.Background(), studentActor("7"), 1)
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStatusEnrolled, res.Status)

	_, err = svc.Reactivate(context.Background(), studentActor("7"), 2)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestCompleteAuthorization(t *testing.T) {
	repo := newFakeRepo()
	repo.add(models.Enrollment{ID: 1, StudentID: 7, CourseID: 42, Status: models.EnrollmentStatusEnrolled, EnrolledAt: time.Now().UTC()})
	courses := &fakeCourses{courses: map[int64]*models.Course{42: {ID: 42, Title: "Algebra", TeacherID: 5}}}
	svc := newTestService(repo, &fakeIdentity{}, courses, &fakeResync{})

	_, err := svc.Complete(context.Background(), studentActor("7"), 1)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	otherTeacher := models.Actor{Subject: "6", Role: models.RoleTeacher, Token: "token"}
	_, err = svc.Complete(context.Background(), otherTeacher, 1)
	appErr = appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	owner := models.Actor{Subject: "5", Role: models.RoleTeacher, Token: "token"}
	res, err := svc.Complete(context.Background(), owner, 1)
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStatusCompleted, res.Status)
}

func TestDeleteResyncsCourseCount(t *testing.T) {
	repo := newFakeRepo()
	repo.add(models.Enrollment{ID: 1, StudentID: 7, CourseID: 42, EnrolledAt: time.Now().UTC()})
	courses := &fakeCourses{syncOK: true}
	svc := newTestService(repo, &fakeIdentity{}, courses, &fakeResync{})

	require.NoError(t, svc.Delete(context.Background(), adminActor(), 1))
	require.Equal(t, []int64{1}, repo.deleted)
	require.Equal(t, []int64{42}, courses.syncCalls)

	err := svc.Delete(context.Background(), adminActor(), 1)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestDeleteAdminOnly(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeIdentity{}, &fakeCourses{}, &fakeResync{})

	err := svc.Delete(context.Background(), studentActor("7"), 1)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestDebugEndpointsAdminOnly(t *testing.T) {
	identity := &fakeIdentity{principals: map[int64]*models.Principal{7: {ID: 7, Role: models.RoleCodeStudent}}, isStudent: map[int64]bool{7: true}}
	svc := newTestService(newFakeRepo(), identity, &fakeCourses{}, &fakeResync{})

	_, err := svc.DebugAuth(&models.JWTClaims{UserID: "7", Role: models.RoleStudent})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	res, err := svc.DebugAuth(&models.JWTClaims{UserID: "1", Role: models.RoleAdmin, Email: "admin@example.com"})
	require.NoError(t, err)
	require.True(t, res.Authenticated)
	require.Equal(t, "admin@example.com", res.Email)

	_, err = svc.DebugExternal(context.Background(), studentActor("7"), 7)
	appErr = appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	ext, err := svc.DebugExternal(context.Background(), adminActor(), 7)
	require.NoError(t, err)
	require.True(t, ext.UserFound)
	require.True(t, ext.IsStudentByService)
}

func TestWritePathsDropCachedStats(t *testing.T) {
	repo := newFakeRepo()
	identity := &fakeIdentity{isStudent: map[int64]bool{7: true}}
	courses := &fakeCourses{courses: map[int64]*models.Course{
		42: {ID: 42, Title: "Algebra"},
		43: {ID: 43, Title: "Biology"},
	}, syncOK: true}
	stats := &fakeStatsInvalidator{}
	svc := newTestService(repo, identity, courses, &fakeResync{}).WithStatsInvalidator(stats)

	res, err := svc.Enroll(context.Background(), studentActor("7"), dto.EnrollRequest{CourseID: 42})
	require.NoError(t, err)
	require.Equal(t, []int64{42}, stats.invalidated)

	_, err = svc.UpdateCourse(context.Background(), adminActor(), res.EnrollmentID, dto.UpdateEnrollmentRequest{CourseID: 43})
	require.NoError(t, err)
	require.Equal(t, []int64{42, 42, 43}, stats.invalidated)

	_, err = svc.Withdraw(context.Background(), studentActor("7"), res.EnrollmentID, dto.WithdrawRequest{Reason: "x"})
	require.NoError(t, err)
	require.Equal(t, []int64{42, 42, 43, 43}, stats.invalidated)

	_, err = svc.Reactivate(context.Background(), studentActor("7"), res.EnrollmentID)
	require.NoError(t, err)
	require.Equal(t, []int64{42, 42, 43, 43, 43}, stats.invalidated)
}

func TestEnrollCountRecomputeFailureSchedulesResync(t *testing.T) {
	repo := newFakeRepo()
	repo.countErr = errors.New("db down")
	identity := &fakeIdentity{isStudent: map[int64]bool{7: true}}
	courses := &fakeCourses{courses: map[int64]*models.Course{42: {ID: 42, Title: "Algebra"}}, syncOK: true}
	resync := &fakeResync{}
	svc := newTestService(repo, identity, courses, resync)

	_, err := svc.Enroll(context.Background(), studentActor("7"), dto.EnrollRequest{CourseID: 42})
	require.NoError(t, err)
	require.Empty(t, courses.syncCalls)
	require.Equal(t, []int64{42}, resync.enqueued)
}
