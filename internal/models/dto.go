package models

import (
	"encoding/json"
	"time"
)

type PurchaseCreateRequest struct {
	CourseID  string `json:"course_id" validate:"required"`
	OriginURL string `json:"origin_url" validate:"required,url"`
}

type PurchaseCreateResponse struct {
	PurchaseID  string `json:"purchase_id"`
	RedirectURL string `json:"redirect_url"`
}

type CourseCreateRequest struct {
	Title           string                 `json:"title" validate:"required,min=1,max=200"`
	Description     string                 `json:"description" validate:"max=10000"`
	Category        string                 `json:"category" validate:"max=100"`
	Price           float64                `json:"price" validate:"min=0"`
	DiscountPercent float64                `json:"discount_percent" validate:"min=0,max=100"`
	ThumbnailURL    *string                `json:"thumbnail_url" validate:"omitempty,url"`
	Chapters        []ChapterCreateRequest `json:"chapters" validate:"dive"`
}

type ChapterCreateRequest struct {
	Title    string                 `json:"title" validate:"required,max=200"`
	Order    int                    `json:"order" validate:"min=0"`
	Lectures []LectureCreateRequest `json:"lectures" validate:"dive"`
}

type LectureCreateRequest struct {
	Title           string          `json:"title" validate:"required,max=200"`
	Type            LectureType     `json:"type" validate:"required,oneof=video quiz"`
	DurationMinutes int             `json:"duration_minutes" validate:"min=0"`
	Order           int             `json:"order" validate:"min=0"`
	PreviewFree     bool            `json:"preview_free"`
	Content         json.RawMessage `json:"content" validate:"required"`
}

type RateCourseRequest struct {
	Rating int `json:"rating" validate:"required,min=1,max=5"`
}

type CommentCreateRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// ===== PROGRESS DTOs =====

type LectureCompleteResponse struct {
	AlreadyCompleted  bool    `json:"already_completed"`
	Completed         bool    `json:"completed"`
	CompletedLectures int     `json:"completed_lectures"`
	TotalLectures     int     `json:"total_lectures"`
	CompletionPercent float64 `json:"completion_percent"`
	CertificateID     *string `json:"certificate_id,omitempty"`
}

type ProgressSnapshot struct {
	CourseID          string     `json:"course_id"`
	CompletedLectures []string   `json:"completed_lectures"`
	TotalLectures     int        `json:"total_lectures"`
	Completed         bool       `json:"completed"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CertificateID     *string    `json:"certificate_id,omitempty"`
}

type EnrolledCourseSummary struct {
	CourseID      string     `json:"course_id"`
	Title         string     `json:"title"`
	ThumbnailURL  *string    `json:"thumbnail_url,omitempty"`
	EnrolledAt    time.Time  `json:"enrolled_at"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CertificateID *string    `json:"certificate_id,omitempty"`
}

// ===== DASHBOARD DTOs =====

type EducatorDashboard struct {
	TotalEarnings     float64             `json:"total_earnings"`
	TotalCourses      int64               `json:"total_courses"`
	EnrolledStudents  int64               `json:"enrolled_students"`
	RevenueByDay      []RevenueBucket     `json:"revenue_by_day"`
	LatestEnrollments []EnrolledStudentRow `json:"latest_enrollments"`
}

type RevenueBucket struct {
	Date    string  `json:"date"` // YYYY-MM-DD
	Revenue float64 `json:"revenue"`
}

type EnrolledStudentRow struct {
	StudentID    string    `json:"student_id"`
	StudentName  string    `json:"student_name"`
	StudentEmail string    `json:"student_email"`
	CourseID     string    `json:"course_id"`
	CourseTitle  string    `json:"course_title"`
	Amount       float64   `json:"amount"`
	PurchasedAt  time.Time `json:"purchased_at"`
}

// ===== PAGINATION =====

type PaginatedResponse struct {
	Content          interface{} `json:"content"`
	TotalElements    int64       `json:"total_elements"`
	TotalPages       int         `json:"total_pages"`
	Size             int         `json:"size"`
	Page             int         `json:"page"`
	First            bool        `json:"first"`
	Last             bool        `json:"last"`
	NumberOfElements int         `json:"number_of_elements"`
	Empty            bool        `json:"empty"`
}

// ===== ERROR RESPONSES =====

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value"`
	Code    string `json:"code"`
}

type ErrorResponse struct {
	Error            string                    `json:"error"`
	Message          string                    `json:"message"`
	Code             string                    `json:"code"`
	Details          interface{}               `json:"details,omitempty"`
	Timestamp        time.Time                 `json:"timestamp"`
	Path             string                    `json:"path"`
	ValidationErrors []ValidationErrorResponse `json:"validation_errors,omitempty"`
}

type SuccessResponse struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
