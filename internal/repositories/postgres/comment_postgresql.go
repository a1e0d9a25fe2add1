package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
	"gorm.io/gorm"
)

type CommentPostgreSQL struct {
	db *gorm.DB
}

func NewCommentPostgreSQL(db *gorm.DB) repositories.CommentRepository {
	return &CommentPostgreSQL{db: db}
}

func (c *CommentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, comment *models.LectureComment) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (c *CommentPostgreSQL) GetByLecture(ctx context.Context, tx *gorm.DB, lectureID string, filters repositories.CommentFilters) ([]*models.LectureComment, int64, error) {
	db := c.getDB(tx)
	var comments []*models.LectureComment
	var total int64

	query := db.WithContext(ctx).Model(&models.LectureComment{}).Where("lecture_id = ?", lectureID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Preload("User").Order("created_at DESC").Find(&comments).Error; err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (c *CommentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}
