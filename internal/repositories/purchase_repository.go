package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"gorm.io/gorm"
)

// PurchaseRepository interface for purchase ledger operations.
//
// UpdateStatusIfPending is the sole commit point of the purchase state
// machine: it performs the conditional `UPDATE ... WHERE status = 'pending'`
// and reports whether this call won the transition.
type PurchaseRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, purchase *models.Purchase) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Purchase, error)
	GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID string) (*models.Purchase, error)

	// Session binding after checkout-session creation
	SetSessionID(ctx context.Context, tx *gorm.DB, id string, sessionID string) error

	// State machine commit point. Returns false when the row was no longer
	// pending (lost the race or already terminal).
	UpdateStatusIfPending(ctx context.Context, tx *gorm.DB, id string, status models.PurchaseStatus) (bool, error)

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters PurchaseFilters) ([]*models.Purchase, int64, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters PurchaseFilters) ([]*models.Purchase, int64, error)

	// Maintenance: marks pending purchases older than cutoff as failed,
	// returns the number of rows swept.
	ExpireStalePending(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// EnrollmentRepository interface for the user<->course membership relation
type EnrollmentRepository interface {
	// Idempotent set insertion (ON CONFLICT DO NOTHING on the unique pair)
	Enroll(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error

	// Membership checks
	Exists(ctx context.Context, tx *gorm.DB, userID, courseID string) (bool, error)

	// Drops the cached membership check for a pair. Callers enrolling inside
	// a transaction must invoke this after commit, not during it, so a
	// concurrent Exists cannot re-cache the pre-commit state.
	InvalidateMembership(ctx context.Context, userID, courseID string)

	// Query operations
	GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Enrollment, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID string, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)
	CountByCourse(ctx context.Context, tx *gorm.DB, courseID string) (int64, error)
}
