// Package functionsclient calls a remote deployment of the gateway functions
// over HTTP. It satisfies the same interfaces as the in-process services so the
// enrollment manager does not care where the functions run.
package functionsclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"skillhub/backend/apperr"
	"skillhub/backend/services/payments"

	"github.com/go-resty/resty/v2"
)

const (
	createOrderPath   = "/functions/v1/create-razorpay-order"
	verifyPaymentPath = "/functions/v1/verify-payment"
)

type Client struct {
	http *resty.Client
}

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func New(opts Options) *Client {
	rc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Content-Type", "application/json")
	if opts.APIKey != "" {
		rc.SetHeader("apikey", opts.APIKey).SetAuthToken(opts.APIKey)
	}
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	return &Client{http: rc}
}

// envelope is the shape both functions answer with.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Error   string `json:"error"`
}

type orderEnvelope struct {
	envelope
	payments.CreateOrderResult
}

type verifyEnvelope struct {
	envelope
	payments.VerifyResult
}

func (c *Client) CreateOrder(ctx context.Context, req payments.CreateOrderRequest) (*payments.CreateOrderResult, error) {
	var out orderEnvelope
	if err := c.call(ctx, createOrderPath, req, &out, &out.envelope, apperr.CodeOrderService); err != nil {
		return nil, err
	}
	if out.Order == nil {
		return nil, apperr.OrderService("order service returned no order")
	}
	return &out.CreateOrderResult, nil
}

func (c *Client) Verify(ctx context.Context, req payments.VerifyRequest) (*payments.VerifyResult, error) {
	var out verifyEnvelope
	if err := c.call(ctx, verifyPaymentPath, req, &out, &out.envelope, apperr.CodeVerificationFailed); err != nil {
		return nil, err
	}
	return &out.VerifyResult, nil
}

func (c *Client) call(ctx context.Context, path string, body, result interface{}, env *envelope, fallbackCode string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(result).
		Post(path)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperr.Timeout(fmt.Errorf("%s timed out: %w", path, err))
		}
		return fmt.Errorf("call %s: %w", path, err)
	}
	if !resp.IsError() && env.Success {
		return nil
	}

	status := resp.StatusCode()
	if status < http.StatusBadRequest {
		status = http.StatusBadGateway
	}
	code := env.Code
	if code == "" {
		code = fallbackCode
	}
	msg := env.Message
	if msg == "" {
		msg = env.Error
	}
	if msg == "" {
		msg = fmt.Sprintf("%s failed with status %d", path, resp.StatusCode())
	}
	return apperr.New(status, code, errors.New(msg))
}
