package repositories

import (
	"context"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"gorm.io/gorm"
)

// CourseRepository interface for course catalog and content tree operations
type CourseRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error)
	GetByIDWithContent(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error) // Include chapters and lectures
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]*models.Course, int64, error)
	GetByEducator(ctx context.Context, tx *gorm.DB, educatorID string, filters CourseFilters) ([]*models.Course, int64, error)

	// Publication
	SetPublished(ctx context.Context, tx *gorm.DB, id string, published bool) error

	// Content tree operations
	GetLecture(ctx context.Context, tx *gorm.DB, lectureID string) (*models.Lecture, error)
	LectureBelongsToCourse(ctx context.Context, tx *gorm.DB, courseID, lectureID string) (bool, error)
	CountLectures(ctx context.Context, tx *gorm.DB, courseID string) (int64, error)

	// Validation and checks
	ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error)
	IsOwnedBy(ctx context.Context, tx *gorm.DB, courseID, educatorID string) (bool, error)
}
