package payment

import (
	"context"
	"fmt"
	"sync"
)

// MockGateway is an in-memory Gateway for tests.
type MockGateway struct {
	mu       sync.Mutex
	sessions map[string]*CheckoutSession
	counter  int

	// CreateErr forces CreateCheckoutSession to fail when set
	CreateErr error
}

func NewMockGateway() *MockGateway {
	return &MockGateway{sessions: make(map[string]*CheckoutSession)}
}

func (m *MockGateway) CreateCheckoutSession(_ context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++
	session := &CheckoutSession{
		ID:         fmt.Sprintf("cs_test_%d", m.counter),
		URL:        fmt.Sprintf("https://checkout.example.com/cs_test_%d", m.counter),
		PaymentRef: fmt.Sprintf("pi_test_%d", m.counter),
		Metadata:   req.Metadata,
	}
	m.sessions[session.PaymentRef] = session
	return session, nil
}

func (m *MockGateway) GetSessionByPaymentRef(_ context.Context, paymentRef string) (*CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[paymentRef]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
