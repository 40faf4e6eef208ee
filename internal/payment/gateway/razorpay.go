// Package gateway implements the Razorpay order API client.
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/config"
	paymentdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ClientParam struct {
	fx.In

	Log *zap.Logger
	Cfg config.Config
}

type Client struct {
	log     *zap.Logger
	baseURL string
	http    *http.Client
}

func NewClient(p ClientParam) paymentdomain.Gateway {
	return &Client{
		log:     p.Log.Named("payment.gateway"),
		baseURL: strings.TrimRight(p.Cfg.Gateway.BaseURL, "/"),
		http:    &http.Client{Timeout: p.Cfg.Gateway.Timeout},
	}
}

type orderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateOrder registers an order with the gateway. Failures are wrapped in
// GatewayError so callers can leave the invoice OPEN and retry.
func (c *Client) CreateOrder(ctx context.Context, creds paymentdomain.Credentials, req paymentdomain.CreateOrderRequest) (paymentdomain.Order, error) {
	if creds.KeyID == "" || creds.KeySecret == "" {
		return paymentdomain.Order{}, paymentdomain.ErrMissingCredentials
	}

	body, err := json.Marshal(orderRequest{
		Amount:   req.AmountMinor,
		Currency: req.Currency,
		Receipt:  req.Receipt,
	})
	if err != nil {
		return paymentdomain.Order{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return paymentdomain.Order{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(creds.KeyID, creds.KeySecret)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return paymentdomain.Order{}, &paymentdomain.GatewayError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return paymentdomain.Order{}, &paymentdomain.GatewayError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("gateway order creation rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("receipt", req.Receipt),
		)
		return paymentdomain.Order{}, &paymentdomain.GatewayError{
			Err: fmt.Errorf("order creation returned %d", resp.StatusCode),
		}
	}

	var parsed orderResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return paymentdomain.Order{}, &paymentdomain.GatewayError{Err: err}
	}
	if parsed.ID == "" {
		return paymentdomain.Order{}, &paymentdomain.GatewayError{
			Err: fmt.Errorf("order response missing id"),
		}
	}

	return paymentdomain.Order{
		ID:          parsed.ID,
		AmountMinor: parsed.Amount,
		Currency:    parsed.Currency,
		Receipt:     parsed.Receipt,
		Status:      parsed.Status,
	}, nil
}

// VerifySignature checks a hex HMAC SHA-256 over the raw webhook payload.
func VerifySignature(payload []byte, signature, secret string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" || secret == "" {
		return paymentdomain.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return paymentdomain.ErrInvalidSignature
	}
	return nil
}
