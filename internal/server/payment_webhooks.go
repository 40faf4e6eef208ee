package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	paymentdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/payment/domain"
	"github.com/gin-gonic/gin"
)

type webhookPaymentEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity webhookPaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// PaymentWebhook ingests gateway capture notifications. Deliveries are
// at-least-once; replays are acknowledged without reapplying. Signature
// verification happens in the payment service because the secret is resolved
// per tenant, which requires the invoice lookup first.
func (s *Server) PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, paymentdomain.ErrInvalidPayload)
		return
	}

	signature := strings.TrimSpace(c.GetHeader("X-Razorpay-Signature"))
	if signature == "" {
		AbortWithError(c, paymentdomain.ErrInvalidSignature)
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		AbortWithError(c, paymentdomain.ErrInvalidPayload)
		return
	}

	if event.Event != "payment.captured" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if event.Payload.Payment.Entity.OrderID == "" {
		AbortWithError(c, paymentdomain.ErrInvalidPayload)
		return
	}

	result, err := s.paymentsvc.HandleCaptured(c.Request.Context(), paymentdomain.CapturedEvent{
		GatewayOrderID:   event.Payload.Payment.Entity.OrderID,
		GatewayPaymentID: event.Payload.Payment.Entity.ID,
		RawPayload:       body,
		Signature:        signature,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settlement": result})
}
