package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enrollment-api/internal/service"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
	"github.com/noah-isme/enrollment-api/pkg/response"
)

// DebugHandler exposes admin-only introspection endpoints for diagnosing
// token and external-adapter issues in non-production environments.
type DebugHandler struct {
	enrollments *service.EnrollmentService
}

// NewDebugHandler creates a new handler.
func NewDebugHandler(enrollments *service.EnrollmentService) *DebugHandler {
	return &DebugHandler{enrollments: enrollments}
}

// Auth godoc
// @Summary Inspect the caller's token
// @Description Echo the validated claims of the caller's token (admin only)
// @Tags Debug
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /enroll/debug/auth [get]
func (h *DebugHandler) Auth(c *gin.Context) {
	res, err := h.enrollments.DebugAuth(claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// External godoc
// @Summary Inspect the identity adapter's view of a user
// @Description Echo the raw auth-service lookup for a user id (admin only)
// @Tags Debug
// @Produce json
// @Param userId path int true "User id"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /enroll/debug/external/{userId} [get]
func (h *DebugHandler) External(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	userID, err := pathID(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.enrollments.DebugExternal(c.Request.Context(), actor, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
