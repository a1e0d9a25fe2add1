package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/payment"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
	"github.com/SAP-F-2025/enrollment-service/internal/validator"
)

type purchaseService struct {
	repo      repositories.Repository
	db        *gorm.DB
	gateway   payment.Gateway
	logger    *slog.Logger
	validator *validator.Validator
}

func NewPurchaseService(repo repositories.Repository, db *gorm.DB, gateway payment.Gateway, logger *slog.Logger, validator *validator.Validator) PurchaseService {
	return &purchaseService{
		repo:      repo,
		db:        db,
		gateway:   gateway,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE PURCHASE OPERATIONS =====

func (s *purchaseService) Create(ctx context.Context, req *CreatePurchaseRequest, userID string) (*models.PurchaseCreateResponse, error) {
	s.logger.Info("Creating purchase",
		"course_id", req.CourseID,
		"user_id", userID)

	// Validate request
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	// Course must exist and be published
	course, err := s.repo.Course().GetByID(ctx, s.db, req.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if !course.Published {
		return nil, ErrCourseNotPublished
	}

	// Already enrolled means nothing to buy
	enrolled, err := s.repo.Enrollment().Exists(ctx, s.db, userID, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if enrolled {
		return nil, ErrPurchaseAlreadyExists
	}

	// Amount is fixed at creation from the current price and discount
	amount := computeAmount(course.Price, course.DiscountPercent)

	purchase := &models.Purchase{
		ID:       uuid.New().String(),
		CourseID: course.ID,
		UserID:   userID,
		Amount:   amount,
		Currency: "USD",
		Status:   models.PurchasePending,
	}

	if err := s.repo.Purchase().Create(ctx, s.db, purchase); err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	// Create the gateway checkout session; the purchase stays pending until
	// the gateway notification arrives
	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutSessionRequest{
		UnitAmount:  int64(math.Round(amount * 100)),
		Currency:    strings.ToLower(purchase.Currency),
		Description: course.Title,
		Quantity:    1,
		SuccessURL:  fmt.Sprintf("%s/loading/my-enrollments", strings.TrimRight(req.OriginURL, "/")),
		CancelURL:   fmt.Sprintf("%s/", strings.TrimRight(req.OriginURL, "/")),
		Metadata: map[string]string{
			"purchase_id": purchase.ID,
			"user_id":     userID,
			"course_id":   course.ID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	if err := s.repo.Purchase().SetSessionID(ctx, s.db, purchase.ID, session.ID); err != nil {
		return nil, fmt.Errorf("failed to bind session to purchase: %w", err)
	}

	s.logger.Info("Purchase created",
		"purchase_id", purchase.ID,
		"session_id", session.ID,
		"amount", amount)

	return &models.PurchaseCreateResponse{
		PurchaseID:  purchase.ID,
		RedirectURL: session.URL,
	}, nil
}

func (s *purchaseService) GetByID(ctx context.Context, id string, userID string) (*models.Purchase, error) {
	purchase, err := s.repo.Purchase().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}

	if purchase.UserID != userID {
		return nil, NewPermissionError(userID, id, "purchase", "read", "not owned by user")
	}

	return purchase, nil
}

func (s *purchaseService) GetByUser(ctx context.Context, userID string, filters repositories.PurchaseFilters) (*PurchaseListResponse, error) {
	purchases, total, err := s.repo.Purchase().GetByUser(ctx, s.db, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}

	page := 0
	if filters.Limit > 0 {
		page = filters.Offset / filters.Limit
	}

	return &PurchaseListResponse{
		Purchases: purchases,
		Total:     total,
		Page:      page,
		Size:      len(purchases),
	}, nil
}

// ===== MAINTENANCE =====

func (s *purchaseService) ExpireStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	swept, err := s.repo.Purchase().ExpireStalePending(ctx, s.db, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale purchases: %w", err)
	}

	if swept > 0 {
		s.logger.Info("Expired stale pending purchases", "count", swept, "cutoff", cutoff)
	}

	return swept, nil
}

// computeAmount applies the discount percent to the price and rounds to
// 2 decimals.
func computeAmount(price, discountPercent float64) float64 {
	amount := price - price*discountPercent/100
	return math.Round(amount*100) / 100
}
