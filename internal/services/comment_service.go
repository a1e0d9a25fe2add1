package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
	"github.com/SAP-F-2025/enrollment-service/internal/validator"
)

type commentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCommentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) CommentService {
	return &commentService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *commentService) Create(ctx context.Context, userID, courseID, lectureID string, req *CreateCommentRequest) (*models.LectureComment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	// Commenting requires enrollment, same gate as progress
	enrolled, err := s.repo.Enrollment().Exists(ctx, s.db, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	belongs, err := s.repo.Course().LectureBelongsToCourse(ctx, s.db, courseID, lectureID)
	if err != nil {
		return nil, fmt.Errorf("failed to check lecture: %w", err)
	}
	if !belongs {
		return nil, ErrLectureNotFound
	}

	comment := &models.LectureComment{
		ID:        uuid.New().String(),
		LectureID: lectureID,
		CourseID:  courseID,
		UserID:    userID,
		Text:      req.Text,
	}

	if err := s.repo.Comment().Create(ctx, s.db, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.logger.Info("Comment created",
		"comment_id", comment.ID,
		"lecture_id", lectureID,
		"user_id", userID)
	return comment, nil
}

func (s *commentService) GetByLecture(ctx context.Context, courseID, lectureID string, filters repositories.CommentFilters) (*CommentListResponse, error) {
	belongs, err := s.repo.Course().LectureBelongsToCourse(ctx, s.db, courseID, lectureID)
	if err != nil {
		return nil, fmt.Errorf("failed to check lecture: %w", err)
	}
	if !belongs {
		return nil, ErrLectureNotFound
	}

	comments, total, err := s.repo.Comment().GetByLecture(ctx, s.db, lectureID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	page := 0
	if filters.Limit > 0 {
		page = filters.Offset / filters.Limit
	}

	return &CommentListResponse{
		Comments: comments,
		Total:    total,
		Page:     page,
		Size:     len(comments),
	}, nil
}
