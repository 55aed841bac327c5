package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enrollment-api/internal/service"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
	"github.com/noah-isme/enrollment-api/pkg/response"
)

// CourseHandler serves the course-scoped read endpoints: roster, roster
// export, and aggregate statistics.
type CourseHandler struct {
	enrollments *service.EnrollmentService
	exports     *service.ExportService
	stats       *service.StatsService
}

// NewCourseHandler creates a new handler. stats may be nil when the feature
// is disabled.
func NewCourseHandler(enrollments *service.EnrollmentService, exports *service.ExportService, stats *service.StatsService) *CourseHandler {
	return &CourseHandler{enrollments: enrollments, exports: exports, stats: stats}
}

// Roster godoc
// @Summary List students in a course
// @Description List every student enrolled in a course (admin or owning teacher)
// @Tags Courses
// @Produce json
// @Param courseId path int true "Course id"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{courseId}/students [get]
func (h *CourseHandler) Roster(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	courseID, err := pathID(c, "courseId")
	if err != nil {
		response.Error(c, err)
		return
	}

	roster, err := h.enrollments.ListCourseRoster(c.Request.Context(), actor, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, roster, nil)
}

// ExportRoster godoc
// @Summary Export the course roster
// @Description Download the course roster as CSV or PDF
// @Tags Courses
// @Produce text/csv
// @Produce application/pdf
// @Param courseId path int true "Course id"
// @Param format query string false "Export format: csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{courseId}/students/export [get]
func (h *CourseHandler) ExportRoster(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	courseID, err := pathID(c, "courseId")
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.exports.ExportRoster(c.Request.Context(), actor, courseID, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

// Stats godoc
// @Summary Course enrollment statistics
// @Description Aggregate enrollment counts for a course (admin or teacher)
// @Tags Courses
// @Produce json
// @Param courseId path int true "Course id"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{courseId}/stats [get]
func (h *CourseHandler) Stats(c *gin.Context) {
	if h.stats == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "statistics are disabled"))
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	courseID, err := pathID(c, "courseId")
	if err != nil {
		response.Error(c, err)
		return
	}

	stats, err := h.stats.CourseStats(c.Request.Context(), actor, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats, nil)
}
