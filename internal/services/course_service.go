package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
	"github.com/SAP-F-2025/enrollment-service/internal/validator"
)

type courseService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCourseService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) CourseService {
	return &courseService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *courseService) Create(ctx context.Context, req *CreateCourseRequest, educatorID string) (*CourseResponse, error) {
	s.logger.Info("Creating course", "title", req.Title, "educator_id", educatorID)

	// Validate request
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	// Validate lecture content payloads against their declared type
	for _, chapter := range req.Chapters {
		for _, lecture := range chapter.Lectures {
			if err := validateLectureContent(lecture.Type, lecture.Content); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
			}
		}
	}

	course := &models.Course{
		ID:              uuid.New().String(),
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Price:           req.Price,
		DiscountPercent: req.DiscountPercent,
		ThumbnailURL:    req.ThumbnailURL,
		EducatorID:      educatorID,
	}

	for _, chapterReq := range req.Chapters {
		chapter := models.Chapter{
			ID:       uuid.New().String(),
			CourseID: course.ID,
			Title:    chapterReq.Title,
			Order:    chapterReq.Order,
		}
		for _, lectureReq := range chapterReq.Lectures {
			chapter.Lectures = append(chapter.Lectures, models.Lecture{
				ID:              uuid.New().String(),
				ChapterID:       chapter.ID,
				CourseID:        course.ID,
				Title:           lectureReq.Title,
				Type:            lectureReq.Type,
				DurationMinutes: lectureReq.DurationMinutes,
				Order:           lectureReq.Order,
				PreviewFree:     lectureReq.PreviewFree,
				Content:         []byte(lectureReq.Content),
			})
		}
		course.Chapters = append(course.Chapters, chapter)
	}

	if err := s.repo.Course().Create(ctx, s.db, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("Course created", "course_id", course.ID, "educator_id", educatorID)

	return &CourseResponse{Course: course, CanEdit: true}, nil
}

func (s *courseService) GetByID(ctx context.Context, id string, userID string) (*CourseResponse, error) {
	course, err := s.repo.Course().GetByIDWithContent(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	isOwner := userID != "" && course.EducatorID == userID

	// Unpublished courses are visible to their owner only
	if !course.Published && !isOwner {
		return nil, ErrCourseNotFound
	}

	enrolled := false
	if userID != "" && !isOwner {
		enrolled, err = s.repo.Enrollment().Exists(ctx, s.db, userID, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check enrollment: %w", err)
		}
	}

	if err := s.decorate(ctx, course); err != nil {
		return nil, err
	}

	// Non-enrolled viewers get the outline with content blanked except
	// free-preview lectures
	if !isOwner && !enrolled {
		blankProtectedContent(course)
	}

	return &CourseResponse{
		Course:     course,
		CanEdit:    isOwner,
		IsEnrolled: enrolled || isOwner,
	}, nil
}

func (s *courseService) Delete(ctx context.Context, id string, educatorID string) error {
	owned, err := s.repo.Course().IsOwnedBy(ctx, s.db, id, educatorID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to check ownership: %w", err)
	}
	if !owned {
		return NewPermissionError(educatorID, id, "course", "delete", "not owned by educator")
	}

	// Courses with enrollments keep their data; soft delete hides them
	if err := s.repo.Course().Delete(ctx, s.db, id); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.logger.Info("Course deleted", "course_id", id, "educator_id", educatorID)
	return nil
}

// ===== LIST OPERATIONS =====

func (s *courseService) List(ctx context.Context, filters repositories.CourseFilters, userID string) (*CourseListResponse, error) {
	// Public listings only ever show published courses
	published := true
	filters.Published = &published

	courses, total, err := s.repo.Course().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	return s.buildListResponse(ctx, courses, total, filters, userID)
}

func (s *courseService) GetByEducator(ctx context.Context, educatorID string, filters repositories.CourseFilters) (*CourseListResponse, error) {
	courses, total, err := s.repo.Course().GetByEducator(ctx, s.db, educatorID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list educator courses: %w", err)
	}

	return s.buildListResponse(ctx, courses, total, filters, educatorID)
}

// ===== PUBLICATION =====

func (s *courseService) Publish(ctx context.Context, id string, educatorID string) error {
	return s.setPublished(ctx, id, educatorID, true)
}

func (s *courseService) Unpublish(ctx context.Context, id string, educatorID string) error {
	return s.setPublished(ctx, id, educatorID, false)
}

func (s *courseService) setPublished(ctx context.Context, id, educatorID string, published bool) error {
	owned, err := s.repo.Course().IsOwnedBy(ctx, s.db, id, educatorID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to check ownership: %w", err)
	}
	if !owned {
		return NewPermissionError(educatorID, id, "course", "publish", "not owned by educator")
	}

	if published {
		// A course needs content before it can be sold
		lectureCount, err := s.repo.Course().CountLectures(ctx, s.db, id)
		if err != nil {
			return fmt.Errorf("failed to count lectures: %w", err)
		}
		if lectureCount == 0 {
			return fmt.Errorf("%w: course must have at least one lecture before publishing", ErrValidationFailed)
		}
	}

	if err := s.repo.Course().SetPublished(ctx, s.db, id, published); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to update publication: %w", err)
	}

	s.logger.Info("Course publication changed", "course_id", id, "published", published)
	return nil
}

// ===== HELPERS =====

func (s *courseService) buildListResponse(ctx context.Context, courses []*models.Course, total int64, filters repositories.CourseFilters, userID string) (*CourseListResponse, error) {
	responses := make([]*CourseResponse, len(courses))
	for i, course := range courses {
		if err := s.decorate(ctx, course); err != nil {
			return nil, err
		}
		responses[i] = &CourseResponse{
			Course:  course,
			CanEdit: userID != "" && course.EducatorID == userID,
		}
	}

	page := 0
	if filters.Limit > 0 {
		page = filters.Offset / filters.Limit
	}

	return &CourseListResponse{
		Courses: responses,
		Total:   total,
		Page:    page,
		Size:    len(responses),
	}, nil
}

// decorate fills the computed fields on a course.
func (s *courseService) decorate(ctx context.Context, course *models.Course) error {
	enrolledCount, err := s.repo.Enrollment().CountByCourse(ctx, s.db, course.ID)
	if err != nil {
		return fmt.Errorf("failed to count enrollments: %w", err)
	}
	course.EnrolledCount = int(enrolledCount)

	lectureCount, err := s.repo.Course().CountLectures(ctx, s.db, course.ID)
	if err != nil {
		return fmt.Errorf("failed to count lectures: %w", err)
	}
	course.LectureCount = int(lectureCount)

	summary, err := s.repo.Rating().Summary(ctx, s.db, course.ID)
	if err != nil {
		return fmt.Errorf("failed to get rating summary: %w", err)
	}
	// Average is floored to a whole star
	course.AverageRating = int(summary.Mean)

	return nil
}

// blankProtectedContent strips lecture payloads a non-enrolled viewer must
// not see. Free-preview lectures keep their content.
func blankProtectedContent(course *models.Course) {
	for ci := range course.Chapters {
		for li := range course.Chapters[ci].Lectures {
			lecture := &course.Chapters[ci].Lectures[li]
			if lecture.PreviewFree {
				continue
			}
			lecture.Content = nil
		}
	}
}

func validateLectureContent(lectureType models.LectureType, content json.RawMessage) error {
	switch lectureType {
	case models.LectureVideo:
		var video models.VideoContent
		if err := json.Unmarshal(content, &video); err != nil {
			return fmt.Errorf("invalid video content: %v", err)
		}
		if video.URL == "" {
			return fmt.Errorf("video lecture requires a url")
		}
	case models.LectureQuiz:
		var quiz models.QuizContent
		if err := json.Unmarshal(content, &quiz); err != nil {
			return fmt.Errorf("invalid quiz content: %v", err)
		}
		if len(quiz.Questions) == 0 {
			return fmt.Errorf("quiz lecture requires at least one question")
		}
		for i, q := range quiz.Questions {
			if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
				return fmt.Errorf("quiz question %d has correct_index out of range", i)
			}
		}
	default:
		return fmt.Errorf("unknown lecture type %q", lectureType)
	}
	return nil
}
