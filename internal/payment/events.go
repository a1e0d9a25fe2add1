package payment

import (
	"encoding/json"
	"fmt"
)

// Webhook event types emitted by the payment gateway. Any other type is
// acknowledged and ignored.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// Event is the decoded body of a gateway notification. Data carries only the
// opaque payment reference; the session lookup resolves it to a purchase.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		PaymentRef string `json:"payment_ref"`
	} `json:"data"`
}

// ParseEvent decodes a verified webhook payload.
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("invalid event payload: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("event payload missing type")
	}
	return &event, nil
}
