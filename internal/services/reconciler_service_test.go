package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/SAP-F-2025/enrollment-service/internal/events"
	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/payment"
)

const testWebhookSecret = "whsec_test_secret"

type reconcilerFixture struct {
	repo      *fakeRepository
	gateway   *payment.MockGateway
	publisher *events.MockEventPublisher
	service   ReconcilerService
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	repo := newFakeRepository()
	gateway := payment.NewMockGateway()
	publisher := events.NewMockEventPublisher(logger)

	return &reconcilerFixture{
		repo:      repo,
		gateway:   gateway,
		publisher: publisher,
		service:   NewReconcilerService(repo, nil, gateway, publisher, testWebhookSecret, logger),
	}
}

// seedPendingPurchase creates a user, a course, a pending purchase and a bound
// checkout session, returning the purchase and the gateway payment reference.
func (f *reconcilerFixture) seedPendingPurchase(t *testing.T) (*models.Purchase, string) {
	t.Helper()
	ctx := context.Background()

	user := &models.User{ID: "user-1", FullName: "Test Student", Email: "student@example.com"}
	if err := f.repo.users.Create(ctx, nil, user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	course := &models.Course{ID: "course-1", Title: "Go Basics", Price: 50, Published: true, EducatorID: "educator-1"}
	if err := f.repo.courses.Create(ctx, nil, course); err != nil {
		t.Fatalf("seed course: %v", err)
	}

	purchase := &models.Purchase{
		ID:       "purchase-1",
		CourseID: course.ID,
		UserID:   user.ID,
		Amount:   50,
		Currency: "USD",
		Status:   models.PurchasePending,
	}
	if err := f.repo.purchases.Create(ctx, nil, purchase); err != nil {
		t.Fatalf("seed purchase: %v", err)
	}

	session, err := f.gateway.CreateCheckoutSession(ctx, payment.CheckoutSessionRequest{
		UnitAmount: 5000,
		Currency:   "usd",
		Metadata:   map[string]string{"purchase_id": purchase.ID},
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if err := f.repo.purchases.SetSessionID(ctx, nil, purchase.ID, session.ID); err != nil {
		t.Fatalf("bind session: %v", err)
	}

	return purchase, session.PaymentRef
}

func signedEvent(t *testing.T, eventType, paymentRef string) ([]byte, string) {
	t.Helper()

	payload, err := json.Marshal(map[string]interface{}{
		"id":   "evt_1",
		"type": eventType,
		"data": map[string]string{"payment_ref": paymentRef},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	return payload, payment.SignPayload(payload, time.Now().Unix(), testWebhookSecret)
}

func TestReconcilerService_HandleNotification_Success(t *testing.T) {
	f := newReconcilerFixture(t)
	purchase, paymentRef := f.seedPendingPurchase(t)
	ctx := context.Background()

	payload, signature := signedEvent(t, payment.EventPaymentSucceeded, paymentRef)
	if err := f.service.HandleNotification(ctx, payload, signature); err != nil {
		t.Fatalf("HandleNotification failed: %v", err)
	}

	updated, err := f.repo.purchases.GetByID(ctx, nil, purchase.ID)
	if err != nil {
		t.Fatalf("get purchase: %v", err)
	}
	if updated.Status != models.PurchaseCompleted {
		t.Errorf("expected status completed, got %s", updated.Status)
	}

	enrolled, _ := f.repo.enrollments.Exists(ctx, nil, purchase.UserID, purchase.CourseID)
	if !enrolled {
		t.Error("expected enrollment to exist after successful payment")
	}

	published := f.publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(published))
	}
	if published[0].Type != events.EventPurchaseCompleted {
		t.Errorf("expected event type %s, got %s", events.EventPurchaseCompleted, published[0].Type)
	}

	// The membership cache is dropped once, after the transaction commits
	if got := f.repo.enrollments.invalidationCount(); got != 1 {
		t.Errorf("expected 1 membership invalidation, got %d", got)
	}
}

func TestReconcilerService_HandleNotification_BadSignature(t *testing.T) {
	f := newReconcilerFixture(t)
	_, paymentRef := f.seedPendingPurchase(t)

	payload, _ := signedEvent(t, payment.EventPaymentSucceeded, paymentRef)

	err := f.service.HandleNotification(context.Background(), payload, "t=12345,v1=deadbeef")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if len(f.publisher.GetPublishedEvents()) != 0 {
		t.Error("no events should be published for rejected notifications")
	}
}

func TestReconcilerService_DoubleDelivery(t *testing.T) {
	f := newReconcilerFixture(t)
	purchase, paymentRef := f.seedPendingPurchase(t)
	ctx := context.Background()

	event := &payment.Event{ID: "evt_1", Type: payment.EventPaymentSucceeded}
	event.Data.PaymentRef = paymentRef

	if err := f.service.ProcessEvent(ctx, event); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	if err := f.service.ProcessEvent(ctx, event); err != nil {
		t.Fatalf("replayed delivery should be acknowledged: %v", err)
	}

	updated, _ := f.repo.purchases.GetByID(ctx, nil, purchase.ID)
	if updated.Status != models.PurchaseCompleted {
		t.Errorf("expected status completed, got %s", updated.Status)
	}

	if got := len(f.publisher.GetPublishedEvents()); got != 1 {
		t.Errorf("expected exactly 1 published event after replay, got %d", got)
	}
}

func TestReconcilerService_ConcurrentDeliveries(t *testing.T) {
	f := newReconcilerFixture(t)
	purchase, paymentRef := f.seedPendingPurchase(t)
	ctx := context.Background()

	// Two deliveries of the same success notification race; the conditional
	// status update decides the winner
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			event := &payment.Event{ID: fmt.Sprintf("evt_%d", i), Type: payment.EventPaymentSucceeded}
			event.Data.PaymentRef = paymentRef
			errs[i] = f.service.ProcessEvent(ctx, event)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("delivery %d failed: %v", i, err)
		}
	}

	updated, _ := f.repo.purchases.GetByID(ctx, nil, purchase.ID)
	if updated.Status != models.PurchaseCompleted {
		t.Errorf("expected status completed, got %s", updated.Status)
	}

	count, _ := f.repo.enrollments.CountByCourse(ctx, nil, purchase.CourseID)
	if count != 1 {
		t.Errorf("expected exactly 1 enrollment, got %d", count)
	}

	if got := len(f.publisher.GetPublishedEvents()); got != 1 {
		t.Errorf("expected exactly 1 published event, got %d", got)
	}
}

func TestReconcilerService_FailedAfterCompleted(t *testing.T) {
	f := newReconcilerFixture(t)
	purchase, paymentRef := f.seedPendingPurchase(t)
	ctx := context.Background()

	succeeded := &payment.Event{ID: "evt_1", Type: payment.EventPaymentSucceeded}
	succeeded.Data.PaymentRef = paymentRef
	if err := f.service.ProcessEvent(ctx, succeeded); err != nil {
		t.Fatalf("success event failed: %v", err)
	}

	failed := &payment.Event{ID: "evt_2", Type: payment.EventPaymentFailed}
	failed.Data.PaymentRef = paymentRef
	if err := f.service.ProcessEvent(ctx, failed); err != nil {
		t.Fatalf("late failure event should be acknowledged: %v", err)
	}

	updated, _ := f.repo.purchases.GetByID(ctx, nil, purchase.ID)
	if updated.Status != models.PurchaseCompleted {
		t.Errorf("completed purchase must stay completed, got %s", updated.Status)
	}
}

func TestReconcilerService_PaymentFailed(t *testing.T) {
	f := newReconcilerFixture(t)
	purchase, paymentRef := f.seedPendingPurchase(t)
	ctx := context.Background()

	event := &payment.Event{ID: "evt_1", Type: payment.EventPaymentFailed}
	event.Data.PaymentRef = paymentRef
	if err := f.service.ProcessEvent(ctx, event); err != nil {
		t.Fatalf("failure event failed: %v", err)
	}

	updated, _ := f.repo.purchases.GetByID(ctx, nil, purchase.ID)
	if updated.Status != models.PurchaseFailed {
		t.Errorf("expected status failed, got %s", updated.Status)
	}

	enrolled, _ := f.repo.enrollments.Exists(ctx, nil, purchase.UserID, purchase.CourseID)
	if enrolled {
		t.Error("failed payment must not enroll the user")
	}

	published := f.publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.EventPurchaseFailed {
		t.Errorf("expected a single %s event, got %v", events.EventPurchaseFailed, published)
	}
}

func TestReconcilerService_UnknownEventType(t *testing.T) {
	f := newReconcilerFixture(t)
	purchase, paymentRef := f.seedPendingPurchase(t)
	ctx := context.Background()

	event := &payment.Event{ID: "evt_1", Type: "customer.updated"}
	event.Data.PaymentRef = paymentRef
	if err := f.service.ProcessEvent(ctx, event); err != nil {
		t.Fatalf("unknown event type should be acknowledged: %v", err)
	}

	updated, _ := f.repo.purchases.GetByID(ctx, nil, purchase.ID)
	if updated.Status != models.PurchasePending {
		t.Errorf("unknown event must not change state, got %s", updated.Status)
	}
}

func TestReconcilerService_UnknownPaymentRef(t *testing.T) {
	f := newReconcilerFixture(t)
	f.seedPendingPurchase(t)

	event := &payment.Event{ID: "evt_1", Type: payment.EventPaymentSucceeded}
	event.Data.PaymentRef = "pi_does_not_exist"

	// Unresolvable references are logged and acknowledged, not retried
	if err := f.service.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("unknown payment ref should be acknowledged: %v", err)
	}
}

func TestReconcilerService_EnrollFailureAcked(t *testing.T) {
	f := newReconcilerFixture(t)
	purchase, paymentRef := f.seedPendingPurchase(t)
	ctx := context.Background()

	f.repo.enrollments.EnrollErr = fmt.Errorf("connection reset")

	event := &payment.Event{ID: "evt_1", Type: payment.EventPaymentSucceeded}
	event.Data.PaymentRef = paymentRef

	// Retries exhaust, the anomaly is logged and the event acknowledged so the
	// gateway stops redelivering
	if err := f.service.ProcessEvent(ctx, event); err != nil {
		t.Fatalf("expected ack after exhausted retries, got %v", err)
	}

	updated, _ := f.repo.purchases.GetByID(ctx, nil, purchase.ID)
	if updated.Status != models.PurchasePending {
		t.Errorf("purchase must stay pending when enrollment never committed, got %s", updated.Status)
	}
	if len(f.publisher.GetPublishedEvents()) != 0 {
		t.Error("no completion event may be published without a committed enrollment")
	}
	if got := f.repo.enrollments.invalidationCount(); got != 0 {
		t.Errorf("membership cache must not be invalidated without a commit, got %d", got)
	}
}
