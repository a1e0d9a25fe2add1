package services

import (
	"errors"
	"fmt"
)

// ===== GENERIC ERRORS =====

var (
	ErrValidationFailed        = errors.New("validation failed")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("forbidden")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrBadRequest              = errors.New("bad request")
	ErrConflict                = errors.New("conflict")
	ErrNotFound                = errors.New("not found")
)

// ===== COURSE ERRORS =====

var (
	ErrCourseNotFound     = errors.New("course not found")
	ErrCourseNotPublished = errors.New("course not published")
	ErrCourseAccessDenied = errors.New("course access denied")
	ErrLectureNotFound    = errors.New("lecture not found")
	ErrChapterNotFound    = errors.New("chapter not found")
)

// ===== PURCHASE ERRORS =====

var (
	ErrPurchaseNotFound      = errors.New("purchase not found")
	ErrPurchaseAlreadyExists = errors.New("purchase already completed for this course")
	ErrPurchaseTerminal      = errors.New("purchase already in terminal status")
	ErrInvalidWebhookEvent   = errors.New("invalid webhook event")
)

// ===== ENROLLMENT / PROGRESS ERRORS =====

var (
	ErrNotEnrolled      = errors.New("user not enrolled in course")
	ErrProgressConflict = errors.New("progress update conflict, retry exhausted")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
)

// ===== USER ERRORS =====

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// PermissionError carries context about a denied operation
type PermissionError struct {
	UserID   string
	Resource string
	ID       string
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %s: %s", e.UserID, e.Action, e.Resource, e.ID, e.Reason)
}

func (e *PermissionError) Unwrap() error {
	return ErrForbidden
}

// NewPermissionError creates a permission error that unwraps to ErrForbidden
func NewPermissionError(userID, id, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:   userID,
		Resource: resource,
		ID:       id,
		Action:   action,
		Reason:   reason,
	}
}
