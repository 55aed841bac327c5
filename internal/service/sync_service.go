package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/pkg/config"
	"github.com/noah-isme/enrollment-api/pkg/jobs"
)

type courseCountSource interface {
	CountByCourse(ctx context.Context, courseID int64) (int, error)
}

type countPusher interface {
	SyncEnrollmentCount(ctx context.Context, token string, courseID int64, total int) bool
}

type resyncPayload struct {
	CourseID int64
	Token    string
}

// SyncService repairs drift between this service's authoritative enrollment
// counts and the course service's cached projection. The enroll workflow's
// inline push stays best-effort; failures land here as background jobs.
type SyncService struct {
	store   courseCountSource
	courses countPusher
	queue   *jobs.Queue
	logger  *zap.Logger
}

// NewSyncService constructs the reconciliation worker.
func NewSyncService(store courseCountSource, courses countPusher, cfg config.SyncConfig, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SyncService{store: store, courses: courses, logger: logger}
	s.queue = jobs.NewQueue("course-count-resync", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the workers.
func (s *SyncService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *SyncService) Stop() {
	s.queue.Stop()
}

// EnqueueResync schedules a count push for the course. Best-effort: if the
// queue is saturated or stopped the failure is logged and dropped.
func (s *SyncService) EnqueueResync(courseID int64, token string) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "course-count-resync",
		Payload: resyncPayload{CourseID: courseID, Token: token},
	})
	if err != nil {
		s.logger.Warn("count resync enqueue failed", zap.Int64("course_id", courseID), zap.Error(err))
	}
}

func (s *SyncService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(resyncPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	total, err := s.store.CountByCourse(ctx, payload.CourseID)
	if err != nil {
		return fmt.Errorf("recompute count for course %d: %w", payload.CourseID, err)
	}

	if !s.courses.SyncEnrollmentCount(ctx, payload.Token, payload.CourseID, total) {
		return fmt.Errorf("course %d count push rejected", payload.CourseID)
	}

	s.logger.Info("course count reconciled",
		zap.Int64("course_id", payload.CourseID),
		zap.Int("total", total))
	return nil
}
