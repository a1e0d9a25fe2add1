package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/SAP-F-2025/enrollment-service/internal/validator"
)

func newUserFixture(t *testing.T) (*fakeRepository, UserService) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	repo := newFakeRepository()
	return repo, NewUserService(repo, nil, nil, logger, validator.New())
}

func identityEvent(eventType, userID, name, email string) *IdentityEventRequest {
	req := &IdentityEventRequest{Type: eventType}
	req.User.ID = userID
	req.User.FullName = name
	req.User.Email = email
	return req
}

func TestUserService_HandleIdentityEvent_Lifecycle(t *testing.T) {
	repo, service := newUserFixture(t)
	ctx := context.Background()

	// Created
	if err := service.HandleIdentityEvent(ctx, identityEvent(IdentityUserCreated, "user-1", "Alice Tran", "alice@example.com")); err != nil {
		t.Fatalf("created event failed: %v", err)
	}
	user, err := repo.users.GetByID(ctx, "user-1")
	if err != nil {
		t.Fatalf("mirror missing user: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("expected mirrored email, got %s", user.Email)
	}

	// Updated
	if err := service.HandleIdentityEvent(ctx, identityEvent(IdentityUserUpdated, "user-1", "Alice Tran", "alice.t@example.com")); err != nil {
		t.Fatalf("updated event failed: %v", err)
	}
	user, _ = repo.users.GetByID(ctx, "user-1")
	if user.Email != "alice.t@example.com" {
		t.Errorf("update not mirrored, got %s", user.Email)
	}

	// Deleted
	if err := service.HandleIdentityEvent(ctx, identityEvent(IdentityUserDeleted, "user-1", "", "")); err != nil {
		t.Fatalf("deleted event failed: %v", err)
	}
	if _, err := service.GetByID(ctx, "user-1"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after delete, got %v", err)
	}

	// Deleting again stays idempotent
	if err := service.HandleIdentityEvent(ctx, identityEvent(IdentityUserDeleted, "user-1", "", "")); err != nil {
		t.Fatalf("replayed delete must be acknowledged: %v", err)
	}
}

func TestUserService_HandleIdentityEvent_CreateIsUpsert(t *testing.T) {
	repo, service := newUserFixture(t)
	ctx := context.Background()

	if err := service.HandleIdentityEvent(ctx, identityEvent(IdentityUserCreated, "user-1", "Alice", "a@example.com")); err != nil {
		t.Fatalf("first created event failed: %v", err)
	}
	if err := service.HandleIdentityEvent(ctx, identityEvent(IdentityUserCreated, "user-1", "Alice Renamed", "a@example.com")); err != nil {
		t.Fatalf("replayed created event failed: %v", err)
	}

	user, _ := repo.users.GetByID(ctx, "user-1")
	if user.FullName != "Alice Renamed" {
		t.Errorf("replayed create must update in place, got %s", user.FullName)
	}
}

func TestUserService_HandleIdentityEvent_UnknownType(t *testing.T) {
	_, service := newUserFixture(t)

	if err := service.HandleIdentityEvent(context.Background(), identityEvent("user.password_changed", "user-1", "", "")); err != nil {
		t.Fatalf("unknown event types must be acknowledged: %v", err)
	}
}

func TestUserService_HandleIdentityEvent_MissingFields(t *testing.T) {
	_, service := newUserFixture(t)

	err := service.HandleIdentityEvent(context.Background(), identityEvent(IdentityUserCreated, "", "", ""))
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed for missing user ID, got %v", err)
	}
}

func TestUserService_PromoteToEducator_UnknownUser(t *testing.T) {
	_, service := newUserFixture(t)

	err := service.PromoteToEducator(context.Background(), "nobody")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
