package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enrollment-api/internal/service"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
	"github.com/noah-isme/enrollment-api/pkg/response"
)

// StudentHandler serves the student-scoped read endpoints.
type StudentHandler struct {
	enrollments *service.EnrollmentService
}

// NewStudentHandler creates a new handler.
func NewStudentHandler(enrollments *service.EnrollmentService) *StudentHandler {
	return &StudentHandler{enrollments: enrollments}
}

// Courses godoc
// @Summary List a student's courses
// @Description List the courses a student is enrolled in. Students see only
// @Description their own; teachers see the subset of courses they own.
// @Tags Students
// @Produce json
// @Param studentId path int true "Student id"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{studentId}/courses [get]
func (h *StudentHandler) Courses(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	studentID, err := pathID(c, "studentId")
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.enrollments.ListStudentEnrollments(c.Request.Context(), actor, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}
