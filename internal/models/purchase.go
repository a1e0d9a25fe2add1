package models

import (
	"time"
)

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseFailed    PurchaseStatus = "failed"
)

// IsTerminal reports whether the status admits no further transitions.
func (s PurchaseStatus) IsTerminal() bool {
	return s == PurchaseCompleted || s == PurchaseFailed
}

// Purchase records one buyer's intent to acquire one course. Amount is fixed
// at creation; Status moves pending -> completed or pending -> failed exactly
// once, via a conditional update on the pending row.
type Purchase struct {
	ID       string `json:"id" gorm:"primaryKey;size:36"`
	CourseID string `json:"course_id" gorm:"not null;index;size:36"`
	UserID   string `json:"user_id" gorm:"not null;index;size:255"`

	// Amount in major currency units, rounded to 2 decimals at creation
	Amount   float64        `json:"amount" gorm:"not null"`
	Currency string         `json:"currency" gorm:"size:3;default:USD"`
	Status   PurchaseStatus `json:"status" gorm:"default:pending;index"`

	// Gateway checkout session reference, set after session creation
	SessionID *string `json:"session_id" gorm:"size:255;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Course Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	User   User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Purchase) TableName() string {
	return "purchases"
}

// Enrollment is the single source of truth for the user<->course membership
// relation. Inserted only by the reconciler; the unique index makes replayed
// inserts a no-op.
type Enrollment struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_user_course_enrollment,priority:1"`
	CourseID   string    `json:"course_id" gorm:"not null;size:36;uniqueIndex:idx_user_course_enrollment,priority:2;index"`
	PurchaseID string    `json:"purchase_id" gorm:"size:36;index"`
	EnrolledAt time.Time `json:"enrolled_at" gorm:"autoCreateTime"`

	// Relations
	User   User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Course Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
