// Package payment holds the payment collaborators that decide the payment
// status a booking starts with.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/ports"
)

// Client asks the payment service to open a payment intent for the booking
// amount and reports the status it answered with.
type Client struct {
	BaseURL string
	Client  *http.Client
}

type intentRequest struct {
	UserID      string `json:"user_id"`
	TourID      string `json:"tour_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

type intentResponse struct {
	Status string `json:"status"`
}

var _ ports.PaymentGateway = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) InitialStatus(ctx context.Context, req ports.PaymentRequest) (domain.PaymentStatus, error) {
	body, err := json.Marshal(intentRequest{
		UserID:      req.UserID.String(),
		TourID:      req.TourID.String(),
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/api/payments/intents", c.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("payment service returned status %d", resp.StatusCode)
	}

	var result intentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	status := domain.PaymentStatus(strings.ToLower(strings.TrimSpace(result.Status)))
	if !status.IsValid() {
		return "", fmt.Errorf("payment service returned unknown status %q", result.Status)
	}
	return status, nil
}

// Static answers every request with the same status. It is used when no
// payment service is configured.
type Static struct {
	Status domain.PaymentStatus
}

var _ ports.PaymentGateway = Static{}

func (s Static) InitialStatus(context.Context, ports.PaymentRequest) (domain.PaymentStatus, error) {
	if !s.Status.IsValid() {
		return domain.PaymentStatusPending, nil
	}
	return s.Status, nil
}
