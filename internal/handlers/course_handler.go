package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
	"github.com/SAP-F-2025/enrollment-service/internal/services"
	"github.com/SAP-F-2025/enrollment-service/internal/utils"
	"github.com/SAP-F-2025/enrollment-service/internal/validator"
)

type CourseHandler struct {
	BaseHandler
	service        services.CourseService
	ratingService  services.RatingService
	commentService services.CommentService
	validator      *validator.Validator
}

func NewCourseHandler(service services.CourseService, ratingService services.RatingService, commentService services.CommentService, validator *validator.Validator, logger utils.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:    NewBaseHandler(logger),
		service:        service,
		ratingService:  ratingService,
		commentService: commentService,
		validator:      validator,
	}
}

// ===== COURSE CRUD =====

// CreateCourse creates a new course with its content tree
// @Summary Create a course
// @Tags courses
// @Accept json
// @Produce json
// @Param request body services.CreateCourseRequest true "Course definition"
// @Success 201 {object} services.CourseResponse
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	educatorID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
		return
	}

	var req services.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating course", "title", req.Title, "educator_id", educatorID)

	response, err := h.service.Create(c.Request.Context(), &req, educatorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetCourse returns a course with its content tree. Non-enrolled viewers see
// the outline with protected content blanked.
// @Summary Get a course
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} services.CourseResponse
// @Failure 404 {object} ErrorResponse "Course not found"
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	// Optional auth: user ID is empty for anonymous viewers
	userID, _ := GetUserIDFromContext(c)

	response, err := h.service.GetByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListCourses returns published courses
// @Summary List published courses
// @Tags courses
// @Produce json
// @Param category query string false "Category filter"
// @Param search query string false "Title search"
// @Param limit query int false "Page size (default: 20)"
// @Param offset query int false "Offset"
// @Success 200 {object} services.CourseListResponse
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	userID, _ := GetUserIDFromContext(c)

	filters := repositories.CourseFilters{
		Search:    c.Query("search"),
		Limit:     parseIntQuery(c, "limit", 20),
		Offset:    parseIntQuery(c, "offset", 0),
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	if category := c.Query("category"); category != "" {
		filters.Category = &category
	}

	response, err := h.service.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// DeleteCourse soft deletes a course owned by the caller
// @Summary Delete a course
// @Tags courses
// @Param id path string true "Course ID"
// @Success 204
// @Failure 403 {object} ErrorResponse "Not the owner"
// @Router /courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	educatorID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), educatorID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// PublishCourse makes a course purchasable
// @Summary Publish a course
// @Tags courses
// @Param id path string true "Course ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse "Course has no lectures"
// @Router /courses/{id}/publish [post]
func (h *CourseHandler) PublishCourse(c *gin.Context) {
	educatorID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
		return
	}

	if err := h.service.Publish(c.Request.Context(), c.Param("id"), educatorID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "published"})
}

// UnpublishCourse hides a course from the catalog
// @Summary Unpublish a course
// @Tags courses
// @Param id path string true "Course ID"
// @Success 200 {object} map[string]string
// @Router /courses/{id}/unpublish [post]
func (h *CourseHandler) UnpublishCourse(c *gin.Context) {
	educatorID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
		return
	}

	if err := h.service.Unpublish(c.Request.Context(), c.Param("id"), educatorID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "unpublished"})
}

// ===== RATINGS =====

// RateCourse records or overwrites the caller's rating
// @Summary Rate a course
// @Tags courses
// @Accept json
// @Param id path string true "Course ID"
// @Param request body services.RateCourseRequest true "Rating"
// @Success 200 {object} map[string]string
// @Failure 403 {object} ErrorResponse "Not enrolled"
// @Router /courses/{id}/rating [post]
func (h *CourseHandler) RateCourse(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
		return
	}

	var req services.RateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	if err := h.ratingService.Rate(c.Request.Context(), userID, c.Param("id"), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "rated"})
}

// GetRatingSummary returns the rating count and mean for a course
// @Summary Get course rating summary
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} repositories.RatingSummary
// @Router /courses/{id}/rating [get]
func (h *CourseHandler) GetRatingSummary(c *gin.Context) {
	summary, err := h.ratingService.GetSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ===== COMMENTS =====

// CreateComment posts a comment on a lecture
// @Summary Comment on a lecture
// @Tags courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param lecture_id path string true "Lecture ID"
// @Param request body services.CreateCommentRequest true "Comment"
// @Success 201 {object} models.LectureComment
// @Failure 403 {object} ErrorResponse "Not enrolled"
// @Router /courses/{id}/lectures/{lecture_id}/comments [post]
func (h *CourseHandler) CreateComment(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
		return
	}

	var req services.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), userID, c.Param("id"), c.Param("lecture_id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// ListComments returns the comments on a lecture
// @Summary List lecture comments
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Param lecture_id path string true "Lecture ID"
// @Success 200 {object} services.CommentListResponse
// @Router /courses/{id}/lectures/{lecture_id}/comments [get]
func (h *CourseHandler) ListComments(c *gin.Context) {
	filters := repositories.CommentFilters{
		Limit:  parseIntQuery(c, "limit", 50),
		Offset: parseIntQuery(c, "offset", 0),
	}

	response, err := h.commentService.GetByLecture(c.Request.Context(), c.Param("id"), c.Param("lecture_id"), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ===== ERROR HANDLING =====

func (h *CourseHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCourseNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Course not found"})
	case errors.Is(err, services.ErrLectureNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Lecture not found"})
	case errors.Is(err, services.ErrNotEnrolled):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Not enrolled in this course"})
	case errors.Is(err, services.ErrInvalidRating):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid rating",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Forbidden"})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}
