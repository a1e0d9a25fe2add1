package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/enrollment-service/internal/cache"
	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewEnrollmentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// Enroll inserts the membership pair. The unique index on (user_id,
// course_id) plus DO NOTHING makes redelivered notifications a no-op.
func (e *EnrollmentPostgreSQL) Enroll(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	db := e.getDB(tx)
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(enrollment).Error
	if err != nil {
		return fmt.Errorf("failed to enroll: %w", err)
	}
	return nil
}

// InvalidateMembership drops the cached membership check. Enroll runs inside
// the reconciler's transaction, so invalidation is left to the caller after
// commit; dropping the key mid-transaction would let a concurrent Exists
// re-cache "not enrolled" for the full TTL.
func (e *EnrollmentPostgreSQL) InvalidateMembership(ctx context.Context, userID, courseID string) {
	cache.InvalidateEnrollmentCache(ctx, e.cacheManager, userID, courseID)
}

func (e *EnrollmentPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, userID, courseID string) (bool, error) {
	db := e.getDB(tx)

	// Membership is checked on every progress/rating/comment call; cache it
	var exists bool
	cacheKey := enrollmentCacheKey(userID, courseID)
	err := e.cacheManager.Exists.CacheOrExecute(ctx, cacheKey, &exists, cache.ExistsCacheConfig.TTL, func() (interface{}, error) {
		var count int64
		if err := db.WithContext(ctx).
			Model(&models.Enrollment{}).
			Where("user_id = ? AND course_id = ?", userID, courseID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		result := count > 0
		return &result, nil
	})

	return exists, err
}

func (e *EnrollmentPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Enrollment, error) {
	db := e.getDB(tx)
	var enrollments []*models.Enrollment
	if err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("enrolled_at DESC").
		Preload("Course").
		Find(&enrollments).Error; err != nil {
		return nil, fmt.Errorf("failed to get enrollments by user: %w", err)
	}
	return enrollments, nil
}

func (e *EnrollmentPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID string, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	db := e.getDB(tx)
	var enrollments []*models.Enrollment
	var total int64

	query := db.WithContext(ctx).Model(&models.Enrollment{}).Where("course_id = ?", courseID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Preload("User").Order("enrolled_at DESC").Find(&enrollments).Error; err != nil {
		return nil, 0, err
	}

	return enrollments, total, nil
}

func (e *EnrollmentPostgreSQL) CountByCourse(ctx context.Context, tx *gorm.DB, courseID string) (int64, error) {
	db := e.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

// ===== HELPER METHODS =====

func enrollmentCacheKey(userID, courseID string) string {
	return fmt.Sprintf("enrolled:%s:%s", userID, courseID)
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (e *EnrollmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}
