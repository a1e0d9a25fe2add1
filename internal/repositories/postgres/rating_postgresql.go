package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingPostgreSQL struct {
	db *gorm.DB
}

func NewRatingPostgreSQL(db *gorm.DB) repositories.RatingRepository {
	return &RatingPostgreSQL{db: db}
}

// Upsert stores the rating, replacing any existing rating by the same user
// for the same course.
func (r *RatingPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, rating *models.CourseRating) error {
	db := r.getDB(tx)
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
		}).
		Create(rating).Error
	if err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}
	return nil
}

func (r *RatingPostgreSQL) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID string) (*models.CourseRating, error) {
	db := r.getDB(tx)
	var rating models.CourseRating
	if err := db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&rating).Error; err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *RatingPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]*models.CourseRating, error) {
	db := r.getDB(tx)
	var ratings []*models.CourseRating
	if err := db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Find(&ratings).Error; err != nil {
		return nil, err
	}
	return ratings, nil
}

func (r *RatingPostgreSQL) Summary(ctx context.Context, tx *gorm.DB, courseID string) (*repositories.RatingSummary, error) {
	db := r.getDB(tx)
	var summary repositories.RatingSummary
	err := db.WithContext(ctx).
		Model(&models.CourseRating{}).
		Select("COUNT(*) as count, COALESCE(AVG(rating), 0) as mean").
		Where("course_id = ?", courseID).
		Scan(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get rating summary: %w", err)
	}
	return &summary, nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (r *RatingPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
