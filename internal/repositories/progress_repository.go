package repositories

import (
	"context"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"gorm.io/gorm"
)

// ProgressRepository interface for per-lecture completion tracking
type ProgressRepository interface {
	Create(ctx context.Context, tx *gorm.DB, progress *models.CourseProgress) error
	GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID string) (*models.CourseProgress, error)

	// Optimistic update guarded by the version column; returns false when
	// another writer bumped the version first.
	UpdateWithVersion(ctx context.Context, tx *gorm.DB, progress *models.CourseProgress) (bool, error)

	// Query operations
	GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.CourseProgress, error)
	CountCompletedByCourse(ctx context.Context, tx *gorm.DB, courseID string) (int64, error)
}

// RatingRepository interface for course rating operations
type RatingRepository interface {
	// Upsert on the (user, course) unique pair
	Upsert(ctx context.Context, tx *gorm.DB, rating *models.CourseRating) error

	GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID string) (*models.CourseRating, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]*models.CourseRating, error)
	Summary(ctx context.Context, tx *gorm.DB, courseID string) (*RatingSummary, error)
}

// CommentRepository interface for lecture comment operations
type CommentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, comment *models.LectureComment) error
	GetByLecture(ctx context.Context, tx *gorm.DB, lectureID string, filters CommentFilters) ([]*models.LectureComment, int64, error)
}
