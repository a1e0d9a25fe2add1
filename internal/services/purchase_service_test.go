package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/payment"
	"github.com/SAP-F-2025/enrollment-service/internal/validator"
)

func TestComputeAmount(t *testing.T) {
	tests := []struct {
		name            string
		price           float64
		discountPercent float64
		want            float64
	}{
		{name: "no discount", price: 100, discountPercent: 0, want: 100},
		{name: "quarter off", price: 100, discountPercent: 25, want: 75},
		{name: "full discount", price: 100, discountPercent: 100, want: 0},
		{name: "rounds to cents", price: 49.99, discountPercent: 10, want: 44.99},
		{name: "fractional discount", price: 33.33, discountPercent: 33.33, want: 22.22},
		{name: "free course", price: 0, discountPercent: 50, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeAmount(tt.price, tt.discountPercent); got != tt.want {
				t.Errorf("computeAmount(%v, %v) = %v, want %v", tt.price, tt.discountPercent, got, tt.want)
			}
		})
	}
}

type purchaseFixture struct {
	repo    *fakeRepository
	gateway *payment.MockGateway
	service PurchaseService
}

func newPurchaseFixture(t *testing.T) *purchaseFixture {
	t.Helper()
	ctx := context.Background()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	repo := newFakeRepository()
	gateway := payment.NewMockGateway()

	course := &models.Course{
		ID:              "course-1",
		Title:           "Go Basics",
		Price:           80,
		DiscountPercent: 25,
		Published:       true,
		EducatorID:      "educator-1",
	}
	if err := repo.courses.Create(ctx, nil, course); err != nil {
		t.Fatalf("seed course: %v", err)
	}

	draft := &models.Course{ID: "course-draft", Title: "Unfinished", Price: 10, EducatorID: "educator-1"}
	if err := repo.courses.Create(ctx, nil, draft); err != nil {
		t.Fatalf("seed draft course: %v", err)
	}

	return &purchaseFixture{
		repo:    repo,
		gateway: gateway,
		service: NewPurchaseService(repo, nil, gateway, logger, validator.New()),
	}
}

func TestPurchaseService_Create(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	resp, err := f.service.Create(ctx, &CreatePurchaseRequest{
		CourseID:  "course-1",
		OriginURL: "https://app.example.com",
	}, "user-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if resp.PurchaseID == "" {
		t.Fatal("expected a purchase ID")
	}
	if resp.RedirectURL == "" {
		t.Fatal("expected a checkout redirect URL")
	}

	purchase, err := f.repo.purchases.GetByID(ctx, nil, resp.PurchaseID)
	if err != nil {
		t.Fatalf("get purchase: %v", err)
	}
	if purchase.Status != models.PurchasePending {
		t.Errorf("new purchase must be pending, got %s", purchase.Status)
	}
	if purchase.Amount != 60 {
		t.Errorf("expected discounted amount 60, got %v", purchase.Amount)
	}
	if purchase.SessionID == nil || *purchase.SessionID == "" {
		t.Error("purchase must be bound to the checkout session")
	}
}

func TestPurchaseService_Create_CourseNotFound(t *testing.T) {
	f := newPurchaseFixture(t)

	_, err := f.service.Create(context.Background(), &CreatePurchaseRequest{
		CourseID:  "missing",
		OriginURL: "https://app.example.com",
	}, "user-1")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestPurchaseService_Create_Unpublished(t *testing.T) {
	f := newPurchaseFixture(t)

	_, err := f.service.Create(context.Background(), &CreatePurchaseRequest{
		CourseID:  "course-draft",
		OriginURL: "https://app.example.com",
	}, "user-1")
	if !errors.Is(err, ErrCourseNotPublished) {
		t.Fatalf("expected ErrCourseNotPublished, got %v", err)
	}
}

func TestPurchaseService_Create_AlreadyEnrolled(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	enrollment := &models.Enrollment{UserID: "user-1", CourseID: "course-1"}
	if err := f.repo.enrollments.Enroll(ctx, nil, enrollment); err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}

	_, err := f.service.Create(ctx, &CreatePurchaseRequest{
		CourseID:  "course-1",
		OriginURL: "https://app.example.com",
	}, "user-1")
	if !errors.Is(err, ErrPurchaseAlreadyExists) {
		t.Fatalf("expected ErrPurchaseAlreadyExists, got %v", err)
	}
}

func TestPurchaseService_Create_InvalidRequest(t *testing.T) {
	f := newPurchaseFixture(t)

	_, err := f.service.Create(context.Background(), &CreatePurchaseRequest{
		CourseID:  "",
		OriginURL: "not a url",
	}, "user-1")
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
}

func TestPurchaseService_GetByID_Ownership(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	purchase := &models.Purchase{ID: "purchase-1", CourseID: "course-1", UserID: "user-1", Amount: 60, Status: models.PurchasePending}
	if err := f.repo.purchases.Create(ctx, nil, purchase); err != nil {
		t.Fatalf("seed purchase: %v", err)
	}

	if _, err := f.service.GetByID(ctx, "purchase-1", "user-1"); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}

	_, err := f.service.GetByID(ctx, "purchase-1", "someone-else")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign purchase, got %v", err)
	}
}
