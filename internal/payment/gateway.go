package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Gateway abstracts the external payment provider. The service only needs
// checkout-session creation and session lookup by payment reference; the
// async outcome arrives through the webhook endpoint.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)
	GetSessionByPaymentRef(ctx context.Context, paymentRef string) (*CheckoutSession, error)
}

type CheckoutSessionRequest struct {
	// Amount in minor currency units
	UnitAmount  int64             `json:"unit_amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Quantity    int               `json:"quantity"`
	SuccessURL  string            `json:"success_url"`
	CancelURL   string            `json:"cancel_url"`
	Metadata    map[string]string `json:"metadata"`
}

type CheckoutSession struct {
	ID         string            `json:"id"`
	URL        string            `json:"url"`
	PaymentRef string            `json:"payment_ref"`
	Metadata   map[string]string `json:"metadata"`
}

// Config holds gateway connection settings
type Config struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
}

type gatewayClient struct {
	client *resty.Client
}

// NewGateway creates a client for the payment provider's REST API
func NewGateway(cfg Config) Gateway {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.SecretKey).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &gatewayClient{client: client}
}

func (g *gatewayClient) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/v1/checkout/sessions")
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("checkout session creation failed: status %d: %s", resp.StatusCode(), resp.String())
	}

	var session CheckoutSession
	if err := json.Unmarshal(resp.Body(), &session); err != nil {
		return nil, fmt.Errorf("invalid checkout session response: %w", err)
	}

	return &session, nil
}

// GetSessionByPaymentRef looks up the checkout session that produced a
// payment. Webhook events carry only the payment reference; the purchase
// identifier is recovered from the session metadata.
func (g *gatewayClient) GetSessionByPaymentRef(ctx context.Context, paymentRef string) (*CheckoutSession, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("payment_ref", paymentRef).
		Get("/v1/checkout/sessions")
	if err != nil {
		return nil, fmt.Errorf("failed to look up checkout session: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("checkout session lookup failed: status %d: %s", resp.StatusCode(), resp.String())
	}

	var result struct {
		Data []CheckoutSession `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("invalid session lookup response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, ErrSessionNotFound
	}

	return &result.Data[0], nil
}

var ErrSessionNotFound = fmt.Errorf("checkout session not found")
