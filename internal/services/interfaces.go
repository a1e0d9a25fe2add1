package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/payment"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use shared model request types
type CreatePurchaseRequest = models.PurchaseCreateRequest
type CreateCourseRequest = models.CourseCreateRequest
type CreateCommentRequest = models.CommentCreateRequest
type RateCourseRequest = models.RateCourseRequest

type CourseResponse struct {
	*models.Course
	CanEdit    bool `json:"can_edit"`
	IsEnrolled bool `json:"is_enrolled"`
}

type CourseListResponse struct {
	Courses []*CourseResponse `json:"courses"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Size    int               `json:"size"`
}

type PurchaseListResponse struct {
	Purchases []*models.Purchase `json:"purchases"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	Size      int                `json:"size"`
}

type CommentListResponse struct {
	Comments []*models.LectureComment `json:"comments"`
	Total    int64                    `json:"total"`
	Page     int                      `json:"page"`
	Size     int                      `json:"size"`
}

// IdentityEventRequest is the decoded payload of an identity-provider
// lifecycle notification.
type IdentityEventRequest struct {
	Type string `json:"type" validate:"required"`
	User struct {
		ID        string  `json:"id" validate:"required"`
		FullName  string  `json:"full_name"`
		Email     string  `json:"email"`
		AvatarURL *string `json:"avatar_url"`
	} `json:"user"`
}

// ===== SERVICE INTERFACES =====

type PurchaseService interface {
	// Creates the pending purchase and the gateway checkout session
	Create(ctx context.Context, req *CreatePurchaseRequest, userID string) (*models.PurchaseCreateResponse, error)

	// Get operations
	GetByID(ctx context.Context, id string, userID string) (*models.Purchase, error)
	GetByUser(ctx context.Context, userID string, filters repositories.PurchaseFilters) (*PurchaseListResponse, error)

	// Maintenance: fails pending purchases older than the TTL
	ExpireStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

type ReconcilerService interface {
	// Full webhook path: verify signature, decode, process
	HandleNotification(ctx context.Context, payload []byte, signature string) error

	// Applies one verified gateway event to the purchase state machine
	ProcessEvent(ctx context.Context, event *payment.Event) error
}

type ProgressService interface {
	// Idempotent per-lecture completion; detects course completion and
	// issues the certificate on the completing call
	CompleteLecture(ctx context.Context, userID, courseID, lectureID string) (*models.LectureCompleteResponse, error)

	// Read operations
	GetProgress(ctx context.Context, userID, courseID string) (*models.ProgressSnapshot, error)
	GetEnrolledCourses(ctx context.Context, userID string) ([]models.EnrolledCourseSummary, error)
}

type CourseService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateCourseRequest, educatorID string) (*CourseResponse, error)
	GetByID(ctx context.Context, id string, userID string) (*CourseResponse, error)
	Delete(ctx context.Context, id string, educatorID string) error

	// List operations
	List(ctx context.Context, filters repositories.CourseFilters, userID string) (*CourseListResponse, error)
	GetByEducator(ctx context.Context, educatorID string, filters repositories.CourseFilters) (*CourseListResponse, error)

	// Publication
	Publish(ctx context.Context, id string, educatorID string) error
	Unpublish(ctx context.Context, id string, educatorID string) error
}

type RatingService interface {
	Rate(ctx context.Context, userID, courseID string, req *RateCourseRequest) error
	GetSummary(ctx context.Context, courseID string) (*repositories.RatingSummary, error)
}

type CommentService interface {
	Create(ctx context.Context, userID, courseID, lectureID string, req *CreateCommentRequest) (*models.LectureComment, error)
	GetByLecture(ctx context.Context, courseID, lectureID string, filters repositories.CommentFilters) (*CommentListResponse, error)
}

type UserService interface {
	// Identity-provider lifecycle notifications
	HandleIdentityEvent(ctx context.Context, req *IdentityEventRequest) error

	// Read operations
	GetByID(ctx context.Context, id string) (*models.User, error)

	// Role change, mirrored back to the identity provider
	PromoteToEducator(ctx context.Context, userID string) error
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Purchase() PurchaseService
	Reconciler() ReconcilerService
	Progress() ProgressService
	Course() CourseService
	Rating() RatingService
	Comment() CommentService
	User() UserService
	Dashboard() DashboardService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
