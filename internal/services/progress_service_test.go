package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/SAP-F-2025/enrollment-service/internal/events"
	"github.com/SAP-F-2025/enrollment-service/internal/models"
)

type progressFixture struct {
	repo      *fakeRepository
	publisher *events.MockEventPublisher
	service   ProgressService
}

// newProgressFixture seeds one enrolled user on a 2-lecture course.
func newProgressFixture(t *testing.T) *progressFixture {
	t.Helper()
	ctx := context.Background()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher(logger)

	course := &models.Course{ID: "course-1", Title: "Go Basics", Published: true, EducatorID: "educator-1"}
	if err := repo.courses.Create(ctx, nil, course); err != nil {
		t.Fatalf("seed course: %v", err)
	}
	repo.courses.addLecture("course-1", "lecture-1")
	repo.courses.addLecture("course-1", "lecture-2")

	enrollment := &models.Enrollment{UserID: "user-1", CourseID: "course-1", PurchaseID: "purchase-1"}
	if err := repo.enrollments.Enroll(ctx, nil, enrollment); err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}

	return &progressFixture{
		repo:      repo,
		publisher: publisher,
		service:   NewProgressService(repo, nil, publisher, logger),
	}
}

func TestProgressService_CompleteLecture(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	resp, err := f.service.CompleteLecture(ctx, "user-1", "course-1", "lecture-1")
	if err != nil {
		t.Fatalf("CompleteLecture failed: %v", err)
	}
	if resp.AlreadyCompleted {
		t.Error("first completion must not report already completed")
	}
	if resp.Completed {
		t.Error("course must not be completed after 1 of 2 lectures")
	}
	if resp.CompletedLectures != 1 || resp.TotalLectures != 2 {
		t.Errorf("expected 1/2 lectures, got %d/%d", resp.CompletedLectures, resp.TotalLectures)
	}
	if resp.CompletionPercent != 50 {
		t.Errorf("expected 50 percent, got %f", resp.CompletionPercent)
	}
	if resp.CertificateID != nil {
		t.Error("no certificate before course completion")
	}
}

func TestProgressService_CompleteLecture_Idempotent(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	if _, err := f.service.CompleteLecture(ctx, "user-1", "course-1", "lecture-1"); err != nil {
		t.Fatalf("first completion failed: %v", err)
	}

	resp, err := f.service.CompleteLecture(ctx, "user-1", "course-1", "lecture-1")
	if err != nil {
		t.Fatalf("repeated completion failed: %v", err)
	}
	if !resp.AlreadyCompleted {
		t.Error("repeated completion must report already completed")
	}
	if resp.CompletedLectures != 1 {
		t.Errorf("repeated completion must not grow the set, got %d", resp.CompletedLectures)
	}
}

func TestProgressService_CourseCompletion(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	if _, err := f.service.CompleteLecture(ctx, "user-1", "course-1", "lecture-1"); err != nil {
		t.Fatalf("lecture 1 failed: %v", err)
	}

	resp, err := f.service.CompleteLecture(ctx, "user-1", "course-1", "lecture-2")
	if err != nil {
		t.Fatalf("lecture 2 failed: %v", err)
	}
	if !resp.Completed {
		t.Fatal("completing the last lecture must complete the course")
	}
	if resp.CertificateID == nil || *resp.CertificateID == "" {
		t.Fatal("certificate must be issued on the completing call")
	}

	// Completion fires exactly once, with the certificate in the event
	published := f.publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("expected 1 completion event, got %d", len(published))
	}
	if published[0].Type != events.EventCourseCompleted {
		t.Errorf("expected event type %s, got %s", events.EventCourseCompleted, published[0].Type)
	}

	// Re-completing a lecture afterwards never re-issues the certificate
	again, err := f.service.CompleteLecture(ctx, "user-1", "course-1", "lecture-2")
	if err != nil {
		t.Fatalf("replayed completion failed: %v", err)
	}
	if !again.AlreadyCompleted {
		t.Error("replayed completion must report already completed")
	}
	if *again.CertificateID != *resp.CertificateID {
		t.Error("certificate must be stable across replays")
	}
	if got := len(f.publisher.GetPublishedEvents()); got != 1 {
		t.Errorf("completion event must fire exactly once, got %d", got)
	}
}

func TestProgressService_NotEnrolled(t *testing.T) {
	f := newProgressFixture(t)

	_, err := f.service.CompleteLecture(context.Background(), "stranger", "course-1", "lecture-1")
	if !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
}

func TestProgressService_LectureNotInCourse(t *testing.T) {
	f := newProgressFixture(t)

	_, err := f.service.CompleteLecture(context.Background(), "user-1", "course-1", "lecture-elsewhere")
	if !errors.Is(err, ErrLectureNotFound) {
		t.Fatalf("expected ErrLectureNotFound, got %v", err)
	}
}

func TestProgressService_VersionConflictExhaustion(t *testing.T) {
	f := newProgressFixture(t)
	f.repo.progress.ForceConflicts = progressRetryAttempts

	_, err := f.service.CompleteLecture(context.Background(), "user-1", "course-1", "lecture-1")
	if !errors.Is(err, ErrProgressConflict) {
		t.Fatalf("expected ErrProgressConflict after exhausted retries, got %v", err)
	}
}

func TestProgressService_GetProgress_Empty(t *testing.T) {
	f := newProgressFixture(t)

	snapshot, err := f.service.GetProgress(context.Background(), "user-1", "course-1")
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if len(snapshot.CompletedLectures) != 0 {
		t.Errorf("expected empty completed set, got %v", snapshot.CompletedLectures)
	}
	if snapshot.TotalLectures != 2 {
		t.Errorf("expected 2 total lectures, got %d", snapshot.TotalLectures)
	}
	if snapshot.Completed {
		t.Error("fresh enrollment must not be completed")
	}
}

func TestProgressService_GetProgress_NotEnrolled(t *testing.T) {
	f := newProgressFixture(t)

	_, err := f.service.GetProgress(context.Background(), "stranger", "course-1")
	if !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
}

func TestGenerateCertificateID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := generateCertificateID()
		if id == "" {
			t.Fatal("certificate ID must not be empty")
		}
		for _, r := range id {
			if !(r >= '0' && r <= '9') && !(r >= 'A' && r <= 'Z') {
				t.Fatalf("certificate ID %q contains invalid character %q", id, r)
			}
		}
		seen[id] = true
	}
	if len(seen) < 90 {
		t.Errorf("certificate IDs collide too often: %d unique of 100", len(seen))
	}
}
