package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/enrollment-service/internal/services"
	"github.com/SAP-F-2025/enrollment-service/internal/utils"
)

// DashboardHandler serves the educator dashboard endpoints
type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetDashboard returns aggregate stats for the calling educator
// @Summary Educator dashboard
// @Description Revenue, enrollment counts, per-course stats and the daily revenue series
// @Tags dashboard
// @Produce json
// @Success 200 {object} models.EducatorDashboard
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	educatorID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
		return
	}

	dashboard, err := h.service.GetEducatorDashboard(c.Request.Context(), educatorID)
	if err != nil {
		h.LogError(c, err, "Failed to build educator dashboard")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetEnrolledStudents returns the students enrolled in the educator's courses
// @Summary List enrolled students
// @Tags dashboard
// @Produce json
// @Param limit query int false "Page size (default: 20)"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /dashboard/students [get]
func (h *DashboardHandler) GetEnrolledStudents(c *gin.Context) {
	educatorID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
		return
	}

	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)

	students, total, err := h.service.GetEnrolledStudents(c.Request.Context(), educatorID, limit, offset)
	if err != nil {
		h.LogError(c, err, "Failed to list enrolled students")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"students": students,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// ExportEnrollments streams the educator's enrollments as an xlsx workbook
// @Summary Export enrollments
// @Tags dashboard
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /dashboard/enrollments/export [get]
func (h *DashboardHandler) ExportEnrollments(c *gin.Context) {
	educatorID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
		return
	}

	h.LogRequest(c, "Exporting enrollments", "educator_id", educatorID)

	data, err := h.service.ExportEnrollments(c.Request.Context(), educatorID)
	if err != nil {
		h.LogError(c, err, "Failed to export enrollments")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
		return
	}

	filename := fmt.Sprintf("enrollments-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
