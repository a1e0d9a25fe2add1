package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
	"gorm.io/gorm"
)

type ProgressPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (p *ProgressPostgreSQL) Create(ctx context.Context, tx *gorm.DB, progress *models.CourseProgress) error {
	db := p.getDB(tx)
	return db.WithContext(ctx).Create(progress).Error
}

func (p *ProgressPostgreSQL) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID string) (*models.CourseProgress, error) {
	db := p.getDB(tx)
	var progress models.CourseProgress
	if err := db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

// UpdateWithVersion writes the row only when the stored version still matches
// the one the caller read. On success the version is bumped; a false return
// means a concurrent writer got there first and the caller should re-read.
func (p *ProgressPostgreSQL) UpdateWithVersion(ctx context.Context, tx *gorm.DB, progress *models.CourseProgress) (bool, error) {
	db := p.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.CourseProgress{}).
		Where("id = ? AND version = ?", progress.ID, progress.Version).
		Updates(map[string]interface{}{
			"completed_lectures": progress.CompletedLectures,
			"completed":          progress.Completed,
			"completed_at":       progress.CompletedAt,
			"certificate_id":     progress.CertificateID,
			"version":            progress.Version + 1,
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update progress: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		progress.Version++
		return true, nil
	}
	return false, nil
}

func (p *ProgressPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.CourseProgress, error) {
	db := p.getDB(tx)
	var records []*models.CourseProgress
	if err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get progress by user: %w", err)
	}
	return records, nil
}

func (p *ProgressPostgreSQL) CountCompletedByCourse(ctx context.Context, tx *gorm.DB, courseID string) (int64, error) {
	db := p.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.CourseProgress{}).
		Where("course_id = ? AND completed = ?", courseID, true).
		Count(&count).Error
	return count, err
}

// ===== HELPER METHODS =====

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (p *ProgressPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}
