package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/validator"
)

func newRatingFixture(t *testing.T) (*fakeRepository, RatingService) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	repo := newFakeRepository()
	ctx := context.Background()

	course := &models.Course{ID: "course-1", Title: "Go Basics", Price: 50, Published: true, EducatorID: "educator-1"}
	if err := repo.courses.Create(ctx, nil, course); err != nil {
		t.Fatalf("seed course: %v", err)
	}

	enrollment := &models.Enrollment{UserID: "user-1", CourseID: "course-1"}
	if err := repo.enrollments.Enroll(ctx, nil, enrollment); err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}

	return repo, NewRatingService(repo, nil, logger, validator.New())
}

func TestRatingService_Rate(t *testing.T) {
	repo, service := newRatingFixture(t)
	ctx := context.Background()

	if err := service.Rate(ctx, "user-1", "course-1", &RateCourseRequest{Rating: 4}); err != nil {
		t.Fatalf("Rate failed: %v", err)
	}

	summary, err := repo.ratings.Summary(ctx, nil, "course-1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Count != 1 || summary.Mean != 4 {
		t.Errorf("expected count=1 mean=4, got count=%d mean=%v", summary.Count, summary.Mean)
	}
}

func TestRatingService_Rate_Overwrite(t *testing.T) {
	repo, service := newRatingFixture(t)
	ctx := context.Background()

	if err := service.Rate(ctx, "user-1", "course-1", &RateCourseRequest{Rating: 2}); err != nil {
		t.Fatalf("first rating failed: %v", err)
	}
	if err := service.Rate(ctx, "user-1", "course-1", &RateCourseRequest{Rating: 5}); err != nil {
		t.Fatalf("re-rating failed: %v", err)
	}

	summary, _ := repo.ratings.Summary(ctx, nil, "course-1")
	if summary.Count != 1 {
		t.Errorf("re-rating must overwrite, not add: count=%d", summary.Count)
	}
	if summary.Mean != 5 {
		t.Errorf("expected overwritten rating 5, got %v", summary.Mean)
	}
}

func TestRatingService_Rate_CourseNotFound(t *testing.T) {
	_, service := newRatingFixture(t)

	// Course existence is checked before the enrollment gate
	err := service.Rate(context.Background(), "user-1", "no-such-course", &RateCourseRequest{Rating: 4})
	if !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestRatingService_Rate_NotEnrolled(t *testing.T) {
	_, service := newRatingFixture(t)

	err := service.Rate(context.Background(), "stranger", "course-1", &RateCourseRequest{Rating: 5})
	if !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
}

func TestRatingService_Rate_OutOfRange(t *testing.T) {
	_, service := newRatingFixture(t)
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		err := service.Rate(ctx, "user-1", "course-1", &RateCourseRequest{Rating: rating})
		if !errors.Is(err, ErrInvalidRating) {
			t.Errorf("rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}
}
