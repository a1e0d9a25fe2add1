package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/enrollment-service/internal/events"
	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
)

// progressRetryAttempts bounds the optimistic-update retries on the
// completion read-modify-write.
const progressRetryAttempts = 3

type progressService struct {
	repo      repositories.Repository
	db        *gorm.DB
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewProgressService(repo repositories.Repository, db *gorm.DB, publisher events.EventPublisher, logger *slog.Logger) ProgressService {
	return &progressService{
		repo:      repo,
		db:        db,
		publisher: publisher,
		logger:    logger,
	}
}

// ===== LECTURE COMPLETION =====

func (s *progressService) CompleteLecture(ctx context.Context, userID, courseID, lectureID string) (*models.LectureCompleteResponse, error) {
	s.logger.Info("Completing lecture",
		"user_id", userID,
		"course_id", courseID,
		"lecture_id", lectureID)

	// Only enrolled users accumulate progress
	enrolled, err := s.repo.Enrollment().Exists(ctx, s.db, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	// The lecture must belong to this course, not merely exist
	belongs, err := s.repo.Course().LectureBelongsToCourse(ctx, s.db, courseID, lectureID)
	if err != nil {
		return nil, fmt.Errorf("failed to check lecture: %w", err)
	}
	if !belongs {
		return nil, ErrLectureNotFound
	}

	totalLectures, err := s.repo.Course().CountLectures(ctx, s.db, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to count lectures: %w", err)
	}

	for attempt := 1; attempt <= progressRetryAttempts; attempt++ {
		progress, err := s.getOrCreateProgress(ctx, userID, courseID)
		if err != nil {
			return nil, err
		}

		already, err := progress.HasLecture(lectureID)
		if err != nil {
			return nil, fmt.Errorf("invalid progress state: %w", err)
		}
		if already {
			return s.buildCompleteResponse(progress, totalLectures, true)
		}

		ids, err := progress.LectureIDs()
		if err != nil {
			return nil, fmt.Errorf("invalid progress state: %w", err)
		}
		ids = append(ids, lectureID)
		if err := progress.SetLectureIDs(ids); err != nil {
			return nil, fmt.Errorf("failed to encode progress: %w", err)
		}

		// Completion fires exactly when the last lecture lands, and the
		// certificate is minted on that same write
		justCompleted := false
		if !progress.Completed && totalLectures > 0 && int64(len(ids)) >= totalLectures {
			now := time.Now()
			certificateID := generateCertificateID()
			progress.Completed = true
			progress.CompletedAt = &now
			progress.CertificateID = &certificateID
			justCompleted = true
		}

		won, err := s.repo.Progress().UpdateWithVersion(ctx, s.db, progress)
		if err != nil {
			return nil, fmt.Errorf("failed to update progress: %w", err)
		}
		if !won {
			s.logger.Debug("Progress version conflict, retrying",
				"user_id", userID,
				"course_id", courseID,
				"attempt", attempt)
			continue
		}

		if justCompleted {
			s.logger.Info("Course completed",
				"user_id", userID,
				"course_id", courseID,
				"certificate_id", *progress.CertificateID)
			s.publishCompletion(ctx, userID, courseID, *progress.CertificateID)
		}

		return s.buildCompleteResponse(progress, totalLectures, false)
	}

	return nil, ErrProgressConflict
}

func (s *progressService) getOrCreateProgress(ctx context.Context, userID, courseID string) (*models.CourseProgress, error) {
	progress, err := s.repo.Progress().GetByUserAndCourse(ctx, s.db, userID, courseID)
	if err == nil {
		return progress, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	// Lazy creation on first completion; a concurrent creator wins via the
	// unique index and we fall back to reading its row
	fresh := &models.CourseProgress{
		UserID:   userID,
		CourseID: courseID,
		Version:  1,
	}
	if err := fresh.SetLectureIDs([]string{}); err != nil {
		return nil, fmt.Errorf("failed to encode progress: %w", err)
	}

	if err := s.repo.Progress().Create(ctx, s.db, fresh); err != nil {
		existing, getErr := s.repo.Progress().GetByUserAndCourse(ctx, s.db, userID, courseID)
		if getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create progress: %w", err)
	}

	return fresh, nil
}

func (s *progressService) buildCompleteResponse(progress *models.CourseProgress, totalLectures int64, alreadyCompleted bool) (*models.LectureCompleteResponse, error) {
	ids, err := progress.LectureIDs()
	if err != nil {
		return nil, fmt.Errorf("invalid progress state: %w", err)
	}

	percent := 0.0
	if totalLectures > 0 {
		percent = float64(len(ids)) / float64(totalLectures) * 100
	}

	return &models.LectureCompleteResponse{
		AlreadyCompleted:  alreadyCompleted,
		Completed:         progress.Completed,
		CompletedLectures: len(ids),
		TotalLectures:     int(totalLectures),
		CompletionPercent: percent,
		CertificateID:     progress.CertificateID,
	}, nil
}

// ===== READ OPERATIONS =====

func (s *progressService) GetProgress(ctx context.Context, userID, courseID string) (*models.ProgressSnapshot, error) {
	enrolled, err := s.repo.Enrollment().Exists(ctx, s.db, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	totalLectures, err := s.repo.Course().CountLectures(ctx, s.db, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to count lectures: %w", err)
	}

	snapshot := &models.ProgressSnapshot{
		CourseID:          courseID,
		CompletedLectures: []string{},
		TotalLectures:     int(totalLectures),
	}

	progress, err := s.repo.Progress().GetByUserAndCourse(ctx, s.db, userID, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// No progress yet is a valid empty snapshot
			return snapshot, nil
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	ids, err := progress.LectureIDs()
	if err != nil {
		return nil, fmt.Errorf("invalid progress state: %w", err)
	}
	if ids != nil {
		snapshot.CompletedLectures = ids
	}
	snapshot.Completed = progress.Completed
	snapshot.CompletedAt = progress.CompletedAt
	snapshot.CertificateID = progress.CertificateID

	return snapshot, nil
}

func (s *progressService) GetEnrolledCourses(ctx context.Context, userID string) ([]models.EnrolledCourseSummary, error) {
	enrollments, err := s.repo.Enrollment().GetByUser(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollments: %w", err)
	}

	progresses, err := s.repo.Progress().GetByUser(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	progressByCourse := make(map[string]*models.CourseProgress, len(progresses))
	for _, p := range progresses {
		progressByCourse[p.CourseID] = p
	}

	summaries := make([]models.EnrolledCourseSummary, 0, len(enrollments))
	for _, enrollment := range enrollments {
		summary := models.EnrolledCourseSummary{
			CourseID:     enrollment.CourseID,
			Title:        enrollment.Course.Title,
			ThumbnailURL: enrollment.Course.ThumbnailURL,
			EnrolledAt:   enrollment.EnrolledAt,
		}
		if p, ok := progressByCourse[enrollment.CourseID]; ok {
			summary.Completed = p.Completed
			summary.CompletedAt = p.CompletedAt
			summary.CertificateID = p.CertificateID
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// ===== HELPERS =====

func (s *progressService) publishCompletion(ctx context.Context, userID, courseID, certificateID string) {
	if s.publisher == nil {
		return
	}

	event := events.NewEvent(events.EventCourseCompleted, events.CourseCompletedData{
		CourseID:      courseID,
		UserID:        userID,
		CertificateID: certificateID,
	})

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish completion event",
			"course_id", courseID,
			"user_id", userID,
			"error", err)
	}
}

// generateCertificateID mints an uppercase base-36 token from the current
// timestamp plus random padding.
func generateCertificateID() string {
	ts := strconv.FormatInt(time.Now().UnixNano(), 36)
	pad := strconv.FormatInt(rand.Int63n(36*36*36*36), 36)
	return strings.ToUpper(ts + pad)
}
