package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
	"github.com/SAP-F-2025/enrollment-service/internal/validator"
)

type ratingService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewRatingService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) RatingService {
	return &ratingService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *ratingService) Rate(ctx context.Context, userID, courseID string, req *RateCourseRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRating, err)
	}

	exists, err := s.repo.Course().ExistsByID(ctx, s.db, courseID)
	if err != nil {
		return fmt.Errorf("failed to check course: %w", err)
	}
	if !exists {
		return ErrCourseNotFound
	}

	// Only enrolled users may rate
	enrolled, err := s.repo.Enrollment().Exists(ctx, s.db, userID, courseID)
	if err != nil {
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return ErrNotEnrolled
	}

	// One rating per (user, course); re-rating overwrites
	rating := &models.CourseRating{
		UserID:   userID,
		CourseID: courseID,
		Rating:   req.Rating,
	}
	if err := s.repo.Rating().Upsert(ctx, s.db, rating); err != nil {
		return fmt.Errorf("failed to save rating: %w", err)
	}

	s.logger.Info("Course rated",
		"user_id", userID,
		"course_id", courseID,
		"rating", req.Rating)
	return nil
}

func (s *ratingService) GetSummary(ctx context.Context, courseID string) (*repositories.RatingSummary, error) {
	summary, err := s.repo.Rating().Summary(ctx, s.db, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating summary: %w", err)
	}
	return summary, nil
}
