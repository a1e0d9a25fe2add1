package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/enrollment-service/internal/validator"
)

// Identity-provider lifecycle event types
const (
	IdentityUserCreated = "user.created"
	IdentityUserUpdated = "user.updated"
	IdentityUserDeleted = "user.deleted"
)

type userService struct {
	repo      repositories.Repository
	db        *gorm.DB
	identity  *casdoor.UserCasdoor
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, db *gorm.DB, identity *casdoor.UserCasdoor, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		db:        db,
		identity:  identity,
		logger:    logger,
		validator: validator,
	}
}

// ===== IDENTITY LIFECYCLE =====

// HandleIdentityEvent keeps the local user mirror in sync with the identity
// provider. All three event types are idempotent.
func (s *userService) HandleIdentityEvent(ctx context.Context, req *IdentityEventRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	s.logger.Info("Processing identity event",
		"event_type", req.Type,
		"user_id", req.User.ID)

	switch req.Type {
	case IdentityUserCreated, IdentityUserUpdated:
		return s.upsertUser(ctx, req)
	case IdentityUserDeleted:
		if err := s.repo.User().Delete(ctx, s.db, req.User.ID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil
			}
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	default:
		// Unknown event types are acknowledged and ignored
		s.logger.Debug("Ignoring unhandled identity event", "event_type", req.Type)
		return nil
	}
}

func (s *userService) upsertUser(ctx context.Context, req *IdentityEventRequest) error {
	user := &models.User{
		ID:        req.User.ID,
		FullName:  req.User.FullName,
		Email:     req.User.Email,
		AvatarURL: req.User.AvatarURL,
	}

	exists, err := s.repo.User().ExistsByID(ctx, req.User.ID)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}

	if exists {
		if err := s.repo.User().Update(ctx, s.db, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return nil
	}

	if err := s.repo.User().Create(ctx, s.db, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// ===== READ OPERATIONS =====

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ===== ROLE MANAGEMENT =====

// PromoteToEducator grants the educator role in the identity provider. The
// role lives there, not in the mirror, so subsequent tokens carry it.
func (s *userService) PromoteToEducator(ctx context.Context, userID string) error {
	exists, err := s.repo.User().ExistsByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}

	if err := s.identity.SetRole(ctx, userID, models.RoleEducator); err != nil {
		return fmt.Errorf("failed to promote user: %w", err)
	}

	s.logger.Info("User promoted to educator", "user_id", userID)
	return nil
}
