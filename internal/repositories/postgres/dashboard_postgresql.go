package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
	"gorm.io/gorm"
)

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardPostgreSQL(db *gorm.DB) repositories.DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// ===== TOTALS =====

func (r *dashboardRepository) GetTotalEarnings(ctx context.Context, tx *gorm.DB, educatorID string) (float64, error) {
	db := r.getDB(tx)

	var result struct {
		Total float64
	}

	if err := db.WithContext(ctx).
		Table("purchases").
		Select("COALESCE(SUM(purchases.amount), 0) as total").
		Joins("JOIN courses ON purchases.course_id = courses.id").
		Where("courses.educator_id = ? AND purchases.status = ?", educatorID, models.PurchaseCompleted).
		Scan(&result).Error; err != nil {
		return 0, fmt.Errorf("failed to get total earnings: %w", err)
	}

	return result.Total, nil
}

func (r *dashboardRepository) GetTotalCourses(ctx context.Context, tx *gorm.DB, educatorID string) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.Course{}).
		Where("educator_id = ? AND deleted_at IS NULL", educatorID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get total courses: %w", err)
	}

	return count, nil
}

func (r *dashboardRepository) GetDistinctStudents(ctx context.Context, tx *gorm.DB, educatorID string) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Table("enrollments").
		Joins("JOIN courses ON enrollments.course_id = courses.id").
		Where("courses.educator_id = ?", educatorID).
		Distinct("enrollments.user_id").
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get distinct students: %w", err)
	}

	return count, nil
}

// ===== REVENUE TRENDS =====

func (r *dashboardRepository) GetRevenueByDay(ctx context.Context, tx *gorm.DB, educatorID string, days int) ([]repositories.RevenueByDayData, error) {
	db := r.getDB(tx)

	startDate := time.Now().AddDate(0, 0, -days)

	var results []struct {
		Day     time.Time
		Revenue float64
	}

	if err := db.WithContext(ctx).
		Table("purchases").
		Select("DATE_TRUNC('day', purchases.updated_at) as day, SUM(purchases.amount) as revenue").
		Joins("JOIN courses ON purchases.course_id = courses.id").
		Where("courses.educator_id = ? AND purchases.status = ? AND purchases.updated_at >= ?",
			educatorID, models.PurchaseCompleted, startDate).
		Group("DATE_TRUNC('day', purchases.updated_at)").
		Order("day ASC").
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to get revenue by day: %w", err)
	}

	buckets := make([]repositories.RevenueByDayData, 0, len(results))
	for _, row := range results {
		buckets = append(buckets, repositories.RevenueByDayData{
			Day:     row.Day,
			Revenue: row.Revenue,
		})
	}

	return buckets, nil
}

// ===== ENROLLED STUDENTS =====

func (r *dashboardRepository) GetEnrolledStudents(ctx context.Context, tx *gorm.DB, educatorID string, limit, offset int) ([]repositories.EnrolledStudentData, int64, error) {
	db := r.getDB(tx)

	base := db.WithContext(ctx).
		Table("purchases").
		Joins("JOIN courses ON purchases.course_id = courses.id").
		Joins("JOIN users ON purchases.user_id = users.id").
		Where("courses.educator_id = ? AND purchases.status = ?", educatorID, models.PurchaseCompleted)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count enrolled students: %w", err)
	}

	var rows []struct {
		StudentID    string
		StudentName  string
		StudentEmail string
		CourseID     string
		CourseTitle  string
		Amount       float64
		PurchasedAt  time.Time
	}

	query := base.
		Select("purchases.user_id as student_id, users.full_name as student_name, users.email as student_email, " +
			"purchases.course_id as course_id, courses.title as course_title, purchases.amount, " +
			"purchases.updated_at as purchased_at").
		Order("purchases.updated_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get enrolled students: %w", err)
	}

	students := make([]repositories.EnrolledStudentData, 0, len(rows))
	for _, row := range rows {
		students = append(students, repositories.EnrolledStudentData{
			StudentID:    row.StudentID,
			StudentName:  row.StudentName,
			StudentEmail: row.StudentEmail,
			CourseID:     row.CourseID,
			CourseTitle:  row.CourseTitle,
			Amount:       row.Amount,
			PurchasedAt:  row.PurchasedAt,
		})
	}

	return students, total, nil
}
