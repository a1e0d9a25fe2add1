package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/enrollment-service/internal/payment"
	"github.com/SAP-F-2025/enrollment-service/internal/services"
	"github.com/SAP-F-2025/enrollment-service/internal/utils"
)

// Signature header names for inbound webhooks
const (
	PaymentSignatureHeader  = "X-Payment-Signature"
	IdentitySignatureHeader = "X-Identity-Signature"
)

// WebhookHandler receives payment gateway and identity provider
// notifications. Both endpoints are unauthenticated; signatures are the only
// trust anchor.
type WebhookHandler struct {
	BaseHandler
	reconciler     services.ReconcilerService
	userService    services.UserService
	identitySecret string
}

func NewWebhookHandler(reconciler services.ReconcilerService, userService services.UserService, identitySecret string, logger utils.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler:    NewBaseHandler(logger),
		reconciler:     reconciler,
		userService:    userService,
		identitySecret: identitySecret,
	}
}

// HandlePaymentWebhook processes a payment gateway notification
// @Summary Payment gateway webhook
// @Description Verify and apply a payment gateway notification
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse "Invalid payload"
// @Failure 401 {object} ErrorResponse "Invalid signature"
// @Router /webhooks/payment [post]
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Failed to read request body"})
		return
	}

	signature := c.GetHeader(PaymentSignatureHeader)

	err = h.reconciler.HandleNotification(c.Request.Context(), payload, signature)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid signature"})
		case errors.Is(err, services.ErrInvalidWebhookEvent):
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid event payload"})
		default:
			// Transient failure; the gateway will retry
			h.LogError(c, err, "Failed to process payment webhook")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": "true"})
}

// HandleIdentityWebhook processes an identity provider lifecycle notification
// @Summary Identity provider webhook
// @Description Verify and apply a user lifecycle notification
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse "Invalid payload"
// @Failure 401 {object} ErrorResponse "Invalid signature"
// @Router /webhooks/identity [post]
func (h *WebhookHandler) HandleIdentityWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Failed to read request body"})
		return
	}

	signature := c.GetHeader(IdentitySignatureHeader)
	if err := payment.VerifySignature(payload, signature, h.identitySecret, payment.DefaultTolerance); err != nil {
		h.LogRequest(c, "Rejected identity webhook with bad signature")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid signature"})
		return
	}

	var req services.IdentityEventRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid event payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.userService.HandleIdentityEvent(c.Request.Context(), &req); err != nil {
		if errors.Is(err, services.ErrValidationFailed) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid event payload",
				Details: err.Error(),
			})
			return
		}
		h.LogError(c, err, "Failed to process identity webhook")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": "true"})
}
