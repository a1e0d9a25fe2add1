package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/enrollment-service/internal/cache"
	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type CoursePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (c *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error) {
	db := c.getDB(tx)
	cacheKey := fmt.Sprintf("id:%s", id)
	var course models.Course

	err := c.cacheManager.Course.CacheOrExecute(ctx, cacheKey, &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var dbCourse models.Course
		if err := db.WithContext(ctx).Where("id = ?", id).First(&dbCourse).Error; err != nil {
			return nil, err
		}
		return &dbCourse, nil
	})

	return &course, err
}

func (c *CoursePostgreSQL) GetByIDWithContent(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error) {
	db := c.getDB(tx)
	var course models.Course
	if err := db.WithContext(ctx).
		Preload("Chapters", func(db *gorm.DB) *gorm.DB {
			return db.Order("chapters.\"order\" ASC")
		}).
		Preload("Chapters.Lectures", func(db *gorm.DB) *gorm.DB {
			return db.Order("lectures.\"order\" ASC")
		}).
		Where("id = ?", id).
		First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Save(course).Error; err != nil {
		return err
	}
	c.invalidate(ctx, course.ID)
	return nil
}

func (c *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Where("id = ?", id).Delete(&models.Course{}).Error; err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	db := c.getDB(tx)
	var courses []*models.Course
	var total int64

	// apply filter first
	query := db.WithContext(ctx).Model(&models.Course{})
	query = c.helpers.ApplyCourseFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = c.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

func (c *CoursePostgreSQL) GetByEducator(ctx context.Context, tx *gorm.DB, educatorID string, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	filters.EducatorID = &educatorID
	return c.List(ctx, tx, filters)
}

func (c *CoursePostgreSQL) SetPublished(ctx context.Context, tx *gorm.DB, id string, published bool) error {
	db := c.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		Update("published", published)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CoursePostgreSQL) GetLecture(ctx context.Context, tx *gorm.DB, lectureID string) (*models.Lecture, error) {
	db := c.getDB(tx)
	var lecture models.Lecture
	if err := db.WithContext(ctx).Where("id = ?", lectureID).First(&lecture).Error; err != nil {
		return nil, err
	}
	return &lecture, nil
}

func (c *CoursePostgreSQL) LectureBelongsToCourse(ctx context.Context, tx *gorm.DB, courseID, lectureID string) (bool, error) {
	db := c.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Lecture{}).
		Where("id = ? AND course_id = ?", lectureID, courseID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (c *CoursePostgreSQL) CountLectures(ctx context.Context, tx *gorm.DB, courseID string) (int64, error) {
	db := c.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Lecture{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

func (c *CoursePostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	db := c.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (c *CoursePostgreSQL) IsOwnedBy(ctx context.Context, tx *gorm.DB, courseID, educatorID string) (bool, error) {
	db := c.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ? AND educator_id = ?", courseID, educatorID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ===== HELPER METHODS =====

func (c *CoursePostgreSQL) invalidate(ctx context.Context, id string) {
	cache.InvalidateCourseCache(ctx, c.cacheManager, id)
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (c *CoursePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}
