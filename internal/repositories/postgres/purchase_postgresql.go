package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
	"gorm.io/gorm"
)

type PurchasePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewPurchasePostgreSQL(db *gorm.DB) repositories.PurchaseRepository {
	return &PurchasePostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (p *PurchasePostgreSQL) Create(ctx context.Context, tx *gorm.DB, purchase *models.Purchase) error {
	db := p.getDB(tx)
	return db.WithContext(ctx).Create(purchase).Error
}

func (p *PurchasePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Purchase, error) {
	db := p.getDB(tx)
	var purchase models.Purchase
	if err := db.WithContext(ctx).Where("id = ?", id).First(&purchase).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (p *PurchasePostgreSQL) GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID string) (*models.Purchase, error) {
	db := p.getDB(tx)
	var purchase models.Purchase
	if err := db.WithContext(ctx).Where("session_id = ?", sessionID).First(&purchase).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (p *PurchasePostgreSQL) SetSessionID(ctx context.Context, tx *gorm.DB, id string, sessionID string) error {
	db := p.getDB(tx)
	return db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ?", id).
		Update("session_id", sessionID).Error
}

// UpdateStatusIfPending transitions the purchase out of pending with a
// conditional update. The WHERE clause on status makes concurrent deliveries
// serialize: exactly one caller observes RowsAffected == 1.
func (p *PurchasePostgreSQL) UpdateStatusIfPending(ctx context.Context, tx *gorm.DB, id string, status models.PurchaseStatus) (bool, error) {
	if !status.IsTerminal() {
		return false, fmt.Errorf("invalid target status %q", status)
	}

	db := p.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ? AND status = ?", id, models.PurchasePending).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (p *PurchasePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.PurchaseFilters) ([]*models.Purchase, int64, error) {
	db := p.getDB(tx)
	var purchases []*models.Purchase
	var total int64

	// apply filter first
	query := db.WithContext(ctx).Model(&models.Purchase{})
	query = p.helpers.ApplyPurchaseFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination
	query = p.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)

	if err := query.Preload("Course").Find(&purchases).Error; err != nil {
		return nil, 0, err
	}

	return purchases, total, nil
}

func (p *PurchasePostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.PurchaseFilters) ([]*models.Purchase, int64, error) {
	filters.UserID = &userID
	return p.List(ctx, tx, filters)
}

// ExpireStalePending sweeps pending purchases that never received a gateway
// notification. They fail in place; a later notification for a swept purchase
// is treated as already-terminal by the reconciler.
func (p *PurchasePostgreSQL) ExpireStalePending(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	db := p.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("status = ? AND created_at < ?", models.PurchasePending, cutoff).
		Updates(map[string]interface{}{
			"status":     models.PurchaseFailed,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ===== HELPER METHODS =====

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (p *PurchasePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}
