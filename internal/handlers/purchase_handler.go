package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
	"github.com/SAP-F-2025/enrollment-service/internal/services"
	"github.com/SAP-F-2025/enrollment-service/internal/utils"
)

type PurchaseHandler struct {
	BaseHandler
	service services.PurchaseService
}

func NewPurchaseHandler(service services.PurchaseService, logger utils.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreatePurchase starts a purchase and returns the checkout redirect URL
// @Summary Create a purchase
// @Description Create a pending purchase for a course and a gateway checkout session
// @Tags purchases
// @Accept json
// @Produce json
// @Param request body services.CreatePurchaseRequest true "Purchase request"
// @Success 201 {object} models.PurchaseCreateResponse
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 404 {object} ErrorResponse "Course not found"
// @Failure 409 {object} ErrorResponse "Already enrolled"
// @Router /purchases [post]
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
		return
	}

	var req services.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating purchase", "course_id", req.CourseID, "user_id", userID)

	response, err := h.service.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetPurchase returns one purchase owned by the caller
// @Summary Get a purchase
// @Tags purchases
// @Produce json
// @Param id path string true "Purchase ID"
// @Success 200 {object} models.Purchase
// @Failure 404 {object} ErrorResponse "Purchase not found"
// @Router /purchases/{id} [get]
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
		return
	}

	purchase, err := h.service.GetByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, purchase)
}

// ListMyPurchases returns the caller's purchases
// @Summary List own purchases
// @Tags purchases
// @Produce json
// @Param limit query int false "Page size (default: 20)"
// @Param offset query int false "Offset"
// @Success 200 {object} services.PurchaseListResponse
// @Router /purchases [get]
func (h *PurchaseHandler) ListMyPurchases(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
		return
	}

	filters := repositories.PurchaseFilters{
		Limit:  parseIntQuery(c, "limit", 20),
		Offset: parseIntQuery(c, "offset", 0),
	}

	response, err := h.service.GetByUser(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ===== ERROR HANDLING =====

func (h *PurchaseHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCourseNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Course not found"})
	case errors.Is(err, services.ErrCourseNotPublished):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Course is not published"})
	case errors.Is(err, services.ErrPurchaseNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Purchase not found"})
	case errors.Is(err, services.ErrPurchaseAlreadyExists):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Already enrolled in this course"})
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

// parseIntQuery reads an integer query parameter with a default
func parseIntQuery(c *gin.Context, name string, defaultValue int) int {
	raw := c.DefaultQuery(name, strconv.Itoa(defaultValue))
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return defaultValue
	}
	return value
}
