package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
)

func newDashboardFixture(t *testing.T) (*fakeRepository, DashboardService) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	repo := newFakeRepository()
	return repo, NewDashboardService(repo, nil, logger)
}

func seedDashboardData(repo *fakeRepository, rows int) {
	repo.dashboard.earnings = 150.50
	repo.dashboard.courses = 2
	repo.dashboard.revenue = []repositories.RevenueByDayData{
		{Day: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Revenue: 100},
		{Day: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), Revenue: 50.50},
	}
	for i := 0; i < rows; i++ {
		repo.dashboard.students = append(repo.dashboard.students, repositories.EnrolledStudentData{
			StudentID:    fmt.Sprintf("user-%d", i),
			StudentName:  fmt.Sprintf("Student %d", i),
			StudentEmail: fmt.Sprintf("student%d@example.com", i),
			CourseID:     "course-1",
			CourseTitle:  "Go Basics",
			Amount:       25,
			PurchasedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		})
	}
}

func TestDashboardService_GetEducatorDashboard(t *testing.T) {
	repo, service := newDashboardFixture(t)
	seedDashboardData(repo, 8)

	dashboard, err := service.GetEducatorDashboard(context.Background(), "educator-1")
	if err != nil {
		t.Fatalf("GetEducatorDashboard failed: %v", err)
	}
	if dashboard.TotalEarnings != 150.50 {
		t.Errorf("expected earnings 150.50, got %v", dashboard.TotalEarnings)
	}
	if dashboard.TotalCourses != 2 {
		t.Errorf("expected 2 courses, got %d", dashboard.TotalCourses)
	}
	if dashboard.EnrolledStudents != 8 {
		t.Errorf("expected 8 distinct students, got %d", dashboard.EnrolledStudents)
	}
	if len(dashboard.RevenueByDay) != 2 {
		t.Fatalf("expected 2 revenue buckets, got %d", len(dashboard.RevenueByDay))
	}
	if dashboard.RevenueByDay[0].Date != "2025-06-01" {
		t.Errorf("expected bucket date 2025-06-01, got %s", dashboard.RevenueByDay[0].Date)
	}
	if len(dashboard.LatestEnrollments) != latestEnrollmentsLimit {
		t.Errorf("expected latest enrollments capped at %d, got %d", latestEnrollmentsLimit, len(dashboard.LatestEnrollments))
	}
}

func TestDashboardService_GetEnrolledStudents_Pagination(t *testing.T) {
	repo, service := newDashboardFixture(t)
	seedDashboardData(repo, 30)
	ctx := context.Background()

	students, total, err := service.GetEnrolledStudents(ctx, "educator-1", 10, 25)
	if err != nil {
		t.Fatalf("GetEnrolledStudents failed: %v", err)
	}
	if total != 30 {
		t.Errorf("expected total 30, got %d", total)
	}
	if len(students) != 5 {
		t.Errorf("expected 5 students in the last page, got %d", len(students))
	}

	// Out-of-range limits fall back to the default page size
	students, _, err = service.GetEnrolledStudents(ctx, "educator-1", 0, 0)
	if err != nil {
		t.Fatalf("GetEnrolledStudents failed: %v", err)
	}
	if len(students) != 20 {
		t.Errorf("expected default page size 20, got %d", len(students))
	}
}

func TestDashboardService_ExportEnrollments(t *testing.T) {
	repo, service := newDashboardFixture(t)
	seedDashboardData(repo, 3)

	data, err := service.ExportEnrollments(context.Background(), "educator-1")
	if err != nil {
		t.Fatalf("ExportEnrollments failed: %v", err)
	}

	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("export is not a readable workbook: %v", err)
	}
	defer file.Close()

	rows, err := file.GetRows("Enrollments")
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Student Name" {
		t.Errorf("expected header row, got %v", rows[0])
	}
	if rows[1][1] != "student0@example.com" {
		t.Errorf("expected first student email, got %v", rows[1])
	}
}
