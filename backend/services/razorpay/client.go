// Package razorpay talks to the Razorpay REST API: order creation and payment
// lookup, both authenticated with the key id/secret pair.
package razorpay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://api.razorpay.com"

// ErrMissingCredentials is returned when the key id or secret is unset.
var ErrMissingCredentials = errors.New("Razorpay configuration missing")

type Client struct {
	http      *resty.Client
	keyID     string
	keySecret string
}

type Options struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rc := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(opts.KeyID, opts.KeySecret).
		SetHeader("Content-Type", "application/json")
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	return &Client{http: rc, keyID: opts.KeyID, keySecret: opts.KeySecret}
}

func (c *Client) KeyID() string     { return c.keyID }
func (c *Client) KeySecret() string { return c.keySecret }

func (c *Client) Configured() bool {
	return c.keyID != "" && c.keySecret != ""
}

type OrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type Order struct {
	ID        string            `json:"id"`
	Entity    string            `json:"entity"`
	Amount    int64             `json:"amount"`
	AmountDue int64             `json:"amount_due"`
	Currency  string            `json:"currency"`
	Receipt   string            `json:"receipt"`
	Status    string            `json:"status"`
	Notes     map[string]string `json:"notes"`
	CreatedAt int64             `json:"created_at"`
}

type Payment struct {
	ID          string `json:"id"`
	Entity      string `json:"entity"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	OrderID     string `json:"order_id"`
	Method      string `json:"method"`
	Captured    bool   `json:"captured"`
	Email       string `json:"email"`
	Contact     string `json:"contact"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"created_at"`
}

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay: status %d: %s", e.Status, e.Body)
}

func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if !c.Configured() {
		return nil, ErrMissingCredentials
	}
	var order Order
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&order).
		Post("/v1/orders")
	if err != nil {
		return nil, fmt.Errorf("razorpay: create order: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode(), Body: resp.String()}
	}
	return &order, nil
}

func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if !c.Configured() {
		return nil, ErrMissingCredentials
	}
	var payment Payment
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", paymentID).
		SetResult(&payment).
		Get("/v1/payments/{id}")
	if err != nil {
		return nil, fmt.Errorf("razorpay: fetch payment: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode(), Body: resp.String()}
	}
	return &payment, nil
}
