package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
)

// revenueWindowDays is the per-day revenue window shown on the dashboard
const revenueWindowDays = 30

// latestEnrollmentsLimit caps the latest-enrollments panel
const latestEnrollmentsLimit = 5

// ===== SERVICE INTERFACE =====

type DashboardService interface {
	// Aggregated educator dashboard (earnings, courses, students, revenue)
	GetEducatorDashboard(ctx context.Context, educatorID string) (*models.EducatorDashboard, error)

	// Paginated enrolled-students listing
	GetEnrolledStudents(ctx context.Context, educatorID string, limit, offset int) ([]repositories.EnrolledStudentData, int64, error)

	// Full enrolled-students export as an xlsx workbook
	ExportEnrollments(ctx context.Context, educatorID string) ([]byte, error)
}

// ===== SERVICE IMPLEMENTATION =====

type dashboardService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewDashboardService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) DashboardService {
	return &dashboardService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

func (s *dashboardService) GetEducatorDashboard(ctx context.Context, educatorID string) (*models.EducatorDashboard, error) {
	s.logger.Info("Getting educator dashboard", "educator_id", educatorID)

	totalEarnings, err := s.repo.Dashboard().GetTotalEarnings(ctx, s.db, educatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get total earnings: %w", err)
	}

	totalCourses, err := s.repo.Dashboard().GetTotalCourses(ctx, s.db, educatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get total courses: %w", err)
	}

	enrolledStudents, err := s.repo.Dashboard().GetDistinctStudents(ctx, s.db, educatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get enrolled students: %w", err)
	}

	revenue, err := s.repo.Dashboard().GetRevenueByDay(ctx, s.db, educatorID, revenueWindowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to get revenue by day: %w", err)
	}

	latest, _, err := s.repo.Dashboard().GetEnrolledStudents(ctx, s.db, educatorID, latestEnrollmentsLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest enrollments: %w", err)
	}

	buckets := make([]models.RevenueBucket, len(revenue))
	for i, day := range revenue {
		buckets[i] = models.RevenueBucket{
			Date:    day.Day.Format("2006-01-02"),
			Revenue: day.Revenue,
		}
	}

	rows := make([]models.EnrolledStudentRow, len(latest))
	for i, row := range latest {
		rows[i] = models.EnrolledStudentRow{
			StudentID:    row.StudentID,
			StudentName:  row.StudentName,
			StudentEmail: row.StudentEmail,
			CourseID:     row.CourseID,
			CourseTitle:  row.CourseTitle,
			Amount:       row.Amount,
			PurchasedAt:  row.PurchasedAt,
		}
	}

	return &models.EducatorDashboard{
		TotalEarnings:     totalEarnings,
		TotalCourses:      totalCourses,
		EnrolledStudents:  enrolledStudents,
		RevenueByDay:      buckets,
		LatestEnrollments: rows,
	}, nil
}

func (s *dashboardService) GetEnrolledStudents(ctx context.Context, educatorID string, limit, offset int) ([]repositories.EnrolledStudentData, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	students, total, err := s.repo.Dashboard().GetEnrolledStudents(ctx, s.db, educatorID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get enrolled students: %w", err)
	}

	return students, total, nil
}

func (s *dashboardService) ExportEnrollments(ctx context.Context, educatorID string) ([]byte, error) {
	s.logger.Info("Exporting enrollments", "educator_id", educatorID)

	const pageSize = 500
	var all []repositories.EnrolledStudentData

	for offset := 0; ; offset += pageSize {
		page, total, err := s.repo.Dashboard().GetEnrolledStudents(ctx, s.db, educatorID, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to get enrolled students: %w", err)
		}
		all = append(all, page...)
		if int64(len(all)) >= total || len(page) == 0 {
			break
		}
	}

	file := excelize.NewFile()
	defer file.Close()

	sheet := "Enrollments"
	file.SetSheetName("Sheet1", sheet)

	headers := []string{"Student Name", "Student Email", "Course", "Amount", "Purchased At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		file.SetCellValue(sheet, cell, header)
	}

	for rowIdx, row := range all {
		values := []interface{}{
			row.StudentName,
			row.StudentEmail,
			row.CourseTitle,
			row.Amount,
			row.PurchasedAt.Format("2006-01-02 15:04:05"),
		}
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			file.SetCellValue(sheet, cell, value)
		}
	}

	buffer, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buffer.Bytes(), nil
}
