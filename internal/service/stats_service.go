package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

type statsSource interface {
	CountByCourse(ctx context.Context, courseID int64) (int, error)
	CountActiveByCourse(ctx context.Context, courseID int64) (int, error)
	StatusBreakdown(ctx context.Context, courseID int64) ([]models.StatusCount, error)
}

type courseReader interface {
	GetCourse(ctx context.Context, token string, id int64) (*models.Course, bool)
}

// StatsService computes per-course enrollment aggregates. The aggregates are
// derived entirely from this service's own table, so they are safe to cache;
// external read models never are.
type StatsService struct {
	repo    statsSource
	courses courseReader
	cache   *CacheService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewStatsService constructs a StatsService.
func NewStatsService(repo statsSource, courses courseReader, cache *CacheService, ttl time.Duration, logger *zap.Logger) *StatsService {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{repo: repo, courses: courses, cache: cache, ttl: ttl, logger: logger}
}

func statsCacheKey(courseID int64) string {
	return fmt.Sprintf("enrollment:stats:course:%d", courseID)
}

// CourseStats returns the enrollment aggregates for a course, serving from
// cache when a fresh entry exists.
func (s *StatsService) CourseStats(ctx context.Context, actor models.Actor, courseID int64) (*dto.CourseStats, error) {
	callerID, err := actorID(actor)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators and teachers can view course statistics")
	}

	course, found := s.courses.GetCourse(ctx, actor.Token, courseID)
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course with id %d not found", courseID))
	}
	if actor.Role == models.RoleTeacher && callerID != course.TeacherID {
		forbidden := appErrors.Clone(appErrors.ErrForbidden, "teachers can only view statistics for their own courses")
		return nil, appErrors.WithDetails(forbidden, fmt.Sprintf("course teacher id: %d", course.TeacherID))
	}

	key := statsCacheKey(courseID)
	var cached dto.CourseStats
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	total, err := s.repo.CountByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("stats count failed", zap.Int64("course_id", courseID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute course statistics")
	}
	active, err := s.repo.CountActiveByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("stats active count failed", zap.Int64("course_id", courseID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute course statistics")
	}
	breakdown, err := s.repo.StatusBreakdown(ctx, courseID)
	if err != nil {
		s.logger.Error("stats breakdown failed", zap.Int64("course_id", courseID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute course statistics")
	}

	byStatus := make(map[string]int, len(breakdown))
	for _, entry := range breakdown {
		byStatus[string(entry.Status)] = entry.Count
	}

	stats := &dto.CourseStats{
		CourseID:          courseID,
		TotalEnrollments:  total,
		ActiveEnrollments: active,
		StatusBreakdown:   byStatus,
		GeneratedAt:       time.Now().UTC(),
	}

	if err := s.cache.Set(ctx, key, stats, s.ttl); err != nil {
		s.logger.Warn("stats cache write failed", zap.Int64("course_id", courseID), zap.Error(err))
	}

	return stats, nil
}

// InvalidateCourse drops the cached aggregates for a course after a write.
func (s *StatsService) InvalidateCourse(ctx context.Context, courseID int64) {
	if err := s.cache.Invalidate(ctx, statsCacheKey(courseID)); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Int64("course_id", courseID), zap.Error(err))
	}
}
