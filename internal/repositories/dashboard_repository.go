package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DashboardRepository interface for educator analytics operations.
// All aggregates read committed purchase/enrollment state only.
type DashboardRepository interface {
	// Totals
	GetTotalEarnings(ctx context.Context, tx *gorm.DB, educatorID string) (float64, error)
	GetTotalCourses(ctx context.Context, tx *gorm.DB, educatorID string) (int64, error)
	GetDistinctStudents(ctx context.Context, tx *gorm.DB, educatorID string) (int64, error)

	// Per-day completed revenue, bucketed by completion date
	GetRevenueByDay(ctx context.Context, tx *gorm.DB, educatorID string, days int) ([]RevenueByDayData, error)

	// Completed purchases joined with student and course info
	GetEnrolledStudents(ctx context.Context, tx *gorm.DB, educatorID string, limit, offset int) ([]EnrolledStudentData, int64, error)
}

// Data structures for dashboard responses

type RevenueByDayData struct {
	Day     time.Time `json:"day"`
	Revenue float64   `json:"revenue"`
}

type EnrolledStudentData struct {
	StudentID    string    `json:"student_id"`
	StudentName  string    `json:"student_name"`
	StudentEmail string    `json:"student_email"`
	CourseID     string    `json:"course_id"`
	CourseTitle  string    `json:"course_title"`
	Amount       float64   `json:"amount"`
	PurchasedAt  time.Time `json:"purchased_at"`
}
