package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/enrollment-service/internal/events"
	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/payment"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
)

// enrollRetryAttempts bounds the success-path transaction retries before the
// notification is acknowledged anyway and left for manual review.
const enrollRetryAttempts = 3

type reconcilerService struct {
	repo          repositories.Repository
	db            *gorm.DB
	gateway       payment.Gateway
	publisher     events.EventPublisher
	webhookSecret string
	tolerance     time.Duration
	logger        *slog.Logger
}

func NewReconcilerService(repo repositories.Repository, db *gorm.DB, gateway payment.Gateway, publisher events.EventPublisher, webhookSecret string, logger *slog.Logger) ReconcilerService {
	return &reconcilerService{
		repo:          repo,
		db:            db,
		gateway:       gateway,
		publisher:     publisher,
		webhookSecret: webhookSecret,
		tolerance:     payment.DefaultTolerance,
		logger:        logger,
	}
}

// ===== WEBHOOK ENTRY POINT =====

func (s *reconcilerService) HandleNotification(ctx context.Context, payload []byte, signature string) error {
	// Signature verification comes before any payload parsing
	if err := payment.VerifySignature(payload, signature, s.webhookSecret, s.tolerance); err != nil {
		s.logger.Warn("Rejected webhook with bad signature", "error", err)
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	event, err := payment.ParseEvent(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWebhookEvent, err)
	}

	return s.ProcessEvent(ctx, event)
}

// ProcessEvent applies one verified gateway event. Unknown event types and
// unresolvable references are acknowledged without error so the gateway stops
// retrying; only transient failures propagate.
func (s *reconcilerService) ProcessEvent(ctx context.Context, event *payment.Event) error {
	switch event.Type {
	case payment.EventPaymentSucceeded, payment.EventPaymentFailed:
	default:
		s.logger.Debug("Ignoring unhandled webhook event", "event_type", event.Type)
		return nil
	}

	s.logger.Info("Processing payment event",
		"event_id", event.ID,
		"event_type", event.Type,
		"payment_ref", event.Data.PaymentRef)

	purchase, err := s.resolvePurchase(ctx, event.Data.PaymentRef)
	if err != nil {
		return err
	}
	if purchase == nil {
		// Anomaly already logged; ack so the gateway stops retrying
		return nil
	}

	// Terminal purchases make every replayed or conflicting event a no-op
	if purchase.Status.IsTerminal() {
		s.logger.Info("Purchase already terminal, ignoring event",
			"purchase_id", purchase.ID,
			"status", purchase.Status,
			"event_type", event.Type)
		return nil
	}

	if event.Type == payment.EventPaymentFailed {
		return s.markFailed(ctx, purchase)
	}

	return s.completeAndEnroll(ctx, purchase)
}

// resolvePurchase maps the gateway payment reference back to a purchase via
// the checkout session metadata. A nil purchase with nil error means the
// reference could not be resolved and the event should be acknowledged.
func (s *reconcilerService) resolvePurchase(ctx context.Context, paymentRef string) (*models.Purchase, error) {
	session, err := s.gateway.GetSessionByPaymentRef(ctx, paymentRef)
	if err != nil {
		if errors.Is(err, payment.ErrSessionNotFound) {
			s.logger.Error("Webhook references unknown checkout session", "payment_ref", paymentRef)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up checkout session: %w", err)
	}

	purchaseID := session.Metadata["purchase_id"]
	if purchaseID == "" {
		s.logger.Error("Checkout session missing purchase metadata",
			"session_id", session.ID,
			"payment_ref", paymentRef)
		return nil, nil
	}

	purchase, err := s.repo.Purchase().GetByID(ctx, s.db, purchaseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.Error("Checkout session references unknown purchase",
				"purchase_id", purchaseID,
				"payment_ref", paymentRef)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}

	// The user and course must still resolve before state changes
	if exists, err := s.repo.User().ExistsByID(ctx, purchase.UserID); err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	} else if !exists {
		s.logger.Error("Purchase references unknown user",
			"purchase_id", purchase.ID,
			"user_id", purchase.UserID)
		return nil, nil
	}

	if exists, err := s.repo.Course().ExistsByID(ctx, s.db, purchase.CourseID); err != nil {
		return nil, fmt.Errorf("failed to check course: %w", err)
	} else if !exists {
		s.logger.Error("Purchase references unknown course",
			"purchase_id", purchase.ID,
			"course_id", purchase.CourseID)
		return nil, nil
	}

	return purchase, nil
}

// ===== STATE TRANSITIONS =====

func (s *reconcilerService) markFailed(ctx context.Context, purchase *models.Purchase) error {
	won, err := s.repo.Purchase().UpdateStatusIfPending(ctx, s.db, purchase.ID, models.PurchaseFailed)
	if err != nil {
		return fmt.Errorf("failed to mark purchase failed: %w", err)
	}
	if !won {
		s.logger.Info("Purchase left pending state concurrently, ignoring failure event",
			"purchase_id", purchase.ID)
		return nil
	}

	s.logger.Info("Purchase failed", "purchase_id", purchase.ID)
	s.publishEvent(ctx, events.EventPurchaseFailed, purchase)
	return nil
}

// completeAndEnroll runs the enrollment insert and the status transition in
// one transaction so a completed purchase always has its enrollment. The
// conditional update decides the race; losing it means another delivery
// already completed the purchase.
func (s *reconcilerService) completeAndEnroll(ctx context.Context, purchase *models.Purchase) error {
	var lastErr error

	for attempt := 1; attempt <= enrollRetryAttempts; attempt++ {
		var won bool

		err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
			enrollment := &models.Enrollment{
				UserID:     purchase.UserID,
				CourseID:   purchase.CourseID,
				PurchaseID: purchase.ID,
			}
			if err := txRepo.Enrollment().Enroll(ctx, nil, enrollment); err != nil {
				return fmt.Errorf("failed to enroll: %w", err)
			}

			var err error
			won, err = txRepo.Purchase().UpdateStatusIfPending(ctx, nil, purchase.ID, models.PurchaseCompleted)
			if err != nil {
				return fmt.Errorf("failed to complete purchase: %w", err)
			}
			return nil
		})

		if err == nil {
			if !won {
				s.logger.Info("Purchase completed by concurrent delivery",
					"purchase_id", purchase.ID)
				return nil
			}

			// Only after commit; invalidating inside the transaction would
			// let a concurrent membership check re-cache the stale state
			s.repo.Enrollment().InvalidateMembership(ctx, purchase.UserID, purchase.CourseID)

			s.logger.Info("Purchase completed and user enrolled",
				"purchase_id", purchase.ID,
				"user_id", purchase.UserID,
				"course_id", purchase.CourseID)
			s.publishEvent(ctx, events.EventPurchaseCompleted, purchase)
			return nil
		}

		lastErr = err
		s.logger.Warn("Enrollment transaction failed, retrying",
			"purchase_id", purchase.ID,
			"attempt", attempt,
			"error", err)
	}

	// Retries exhausted: log the anomaly and ack so the purchase is left for
	// the stale-pending sweeper or manual review instead of endless redelivery
	s.logger.Error("Enrollment transaction exhausted retries, acknowledging anyway",
		"purchase_id", purchase.ID,
		"error", lastErr)
	return nil
}

func (s *reconcilerService) publishEvent(ctx context.Context, eventType string, purchase *models.Purchase) {
	if s.publisher == nil {
		return
	}

	event := events.NewEvent(eventType, events.PurchaseEventData{
		PurchaseID: purchase.ID,
		CourseID:   purchase.CourseID,
		UserID:     purchase.UserID,
		Amount:     purchase.Amount,
	})

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish purchase event",
			"event_type", eventType,
			"purchase_id", purchase.ID,
			"error", err)
	}
}
