package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/pkg/config"
)

// CourseClient talks to the course service. Lookups fail soft; the count
// push promises best-effort notification only, so callers must never depend
// on the remote count being exactly consistent at any instant.
type CourseClient struct {
	baseURL    string
	syncMethod string
	client     *http.Client
	logger     *zap.Logger
	observer   RequestObserver
}

// NewCourseClient constructs a CourseClient. The count-sync HTTP method is
// pinned by configuration (PUT or PATCH); there is no endpoint probing, a
// contract mismatch surfaces as a loudly logged failure.
func NewCourseClient(cfg config.ExternalConfig, logger *zap.Logger, observer RequestObserver) *CourseClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	method := cfg.CountSyncMethod
	if method != http.MethodPatch {
		method = http.MethodPut
	}
	return &CourseClient{
		baseURL:    cfg.CourseServiceURL,
		syncMethod: method,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
		observer:   observer,
	}
}

// GetCourse fetches a course record, forwarding the caller's bearer token.
func (c *CourseClient) GetCourse(ctx context.Context, token string, id int64) (*models.Course, bool) {
	start := time.Now()
	course, found := c.getCourse(ctx, token, id)
	if c.observer != nil {
		c.observer.ObserveExternalRequest("course", "get_course", found, time.Since(start))
	}
	return course, found
}

func (c *CourseClient) getCourse(ctx context.Context, token string, id int64) (*models.Course, bool) {
	url := fmt.Sprintf("%s/api/courses/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Warn("course request build failed", zap.Int64("course_id", id), zap.Error(err))
		return nil, false
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("course service unreachable", zap.Int64("course_id", id), zap.Error(err))
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("course lookup miss", zap.Int64("course_id", id), zap.Int("status", resp.StatusCode))
		return nil, false
	}

	var course models.Course
	if err := json.NewDecoder(resp.Body).Decode(&course); err != nil {
		c.logger.Warn("course response decode failed", zap.Int64("course_id", id), zap.Error(err))
		return nil, false
	}
	return &course, true
}

type countSyncPayload struct {
	NumberSubscribers int `json:"numberSubscribers"`
}

// SyncEnrollmentCount pushes the recomputed total for a course. Returns
// false on any failure; the caller logs and moves on, the enrollment itself
// is already committed.
func (c *CourseClient) SyncEnrollmentCount(ctx context.Context, token string, courseID int64, total int) bool {
	start := time.Now()
	ok := c.syncEnrollmentCount(ctx, token, courseID, total)
	if c.observer != nil {
		c.observer.ObserveExternalRequest("course", "sync_count", ok, time.Since(start))
	}
	return ok
}

func (c *CourseClient) syncEnrollmentCount(ctx context.Context, token string, courseID int64, total int) bool {
	body, err := json.Marshal(countSyncPayload{NumberSubscribers: total})
	if err != nil {
		c.logger.Error("count sync payload marshal failed", zap.Int64("course_id", courseID), zap.Error(err))
		return false
	}

	url := fmt.Sprintf("%s/api/courses/%d/enrollment-count", c.baseURL, courseID)
	req, err := http.NewRequestWithContext(ctx, c.syncMethod, url, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("count sync request build failed", zap.Int64("course_id", courseID), zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("count sync failed", zap.Int64("course_id", courseID), zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// A non-2xx here usually means the pinned contract and the deployed
		// course service disagree. Surface it loudly instead of probing
		// alternate endpoint shapes.
		c.logger.Error("count sync rejected by course service",
			zap.Int64("course_id", courseID),
			zap.Int("total", total),
			zap.String("method", c.syncMethod),
			zap.Int("status", resp.StatusCode))
		return false
	}
	return true
}
