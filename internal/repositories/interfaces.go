package repositories

import (
	"time"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	Published  *bool   `json:"published"`
	Category   *string `json:"category"`
	EducatorID *string `json:"educator_id"`
	Search     string  `json:"search"`
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
	SortBy     string  `json:"sort_by"`    // "created_at", "title", "price"
	SortOrder  string  `json:"sort_order"` // "asc", "desc"
}

type PurchaseFilters struct {
	Status   *models.PurchaseStatus `json:"status"`
	UserID   *string                `json:"user_id"`
	CourseID *string                `json:"course_id"`
	DateFrom *time.Time             `json:"date_from"`
	DateTo   *time.Time             `json:"date_to"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
}

type EnrollmentFilters struct {
	CourseID *string `json:"course_id"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
}

type CommentFilters struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type RatingSummary struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
}

type EducatorStats struct {
	TotalEarnings    float64 `json:"total_earnings"`
	TotalCourses     int64   `json:"total_courses"`
	EnrolledStudents int64   `json:"enrolled_students"`
}
