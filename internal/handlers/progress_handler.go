package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/enrollment-service/internal/services"
	"github.com/SAP-F-2025/enrollment-service/internal/utils"
)

type ProgressHandler struct {
	BaseHandler
	service services.ProgressService
}

func NewProgressHandler(service services.ProgressService, logger utils.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CompleteLecture marks a lecture complete for the caller
// @Summary Complete a lecture
// @Description Record lecture completion; issues a certificate when the last lecture completes the course
// @Tags progress
// @Produce json
// @Param id path string true "Course ID"
// @Param lecture_id path string true "Lecture ID"
// @Success 200 {object} models.LectureCompleteResponse
// @Failure 403 {object} ErrorResponse "Not enrolled"
// @Failure 404 {object} ErrorResponse "Lecture not found"
// @Failure 409 {object} ErrorResponse "Concurrent update conflict"
// @Router /courses/{id}/lectures/{lecture_id}/complete [post]
func (h *ProgressHandler) CompleteLecture(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
		return
	}

	courseID := c.Param("id")
	lectureID := c.Param("lecture_id")

	h.LogRequest(c, "Completing lecture", "course_id", courseID, "lecture_id", lectureID, "user_id", userID)

	response, err := h.service.CompleteLecture(c.Request.Context(), userID, courseID, lectureID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetProgress returns the caller's progress in a course
// @Summary Get course progress
// @Tags progress
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} models.ProgressSnapshot
// @Failure 403 {object} ErrorResponse "Not enrolled"
// @Router /courses/{id}/progress [get]
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
		return
	}

	snapshot, err := h.service.GetProgress(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetMyEnrollments returns the caller's enrolled courses with progress
// @Summary List own enrollments
// @Tags progress
// @Produce json
// @Success 200 {array} models.EnrolledCourseSummary
// @Router /enrollments [get]
func (h *ProgressHandler) GetMyEnrollments(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
		return
	}

	courses, err := h.service.GetEnrolledCourses(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// ===== ERROR HANDLING =====

func (h *ProgressHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotEnrolled):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Not enrolled in this course"})
	case errors.Is(err, services.ErrLectureNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Lecture not found"})
	case errors.Is(err, services.ErrCourseNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Course not found"})
	case errors.Is(err, services.ErrProgressConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Progress was updated concurrently, retry the request"})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}
