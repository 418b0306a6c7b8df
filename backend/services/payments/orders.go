// Package payments holds the two gateway-facing functions: order creation and
// payment verification. They are served over HTTP by backend/functions and
// called in-process by the enrollment manager when no remote deployment is
// configured.
package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"skillhub/backend/apperr"
	"skillhub/backend/services/razorpay"
	"skillhub/backend/utils"
)

// MaxOrderAmount is the largest order accepted, in paise.
const MaxOrderAmount = 10_000_000

// Gateway is the subset of the Razorpay client the functions need.
type Gateway interface {
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error)
	Configured() bool
	KeyID() string
	KeySecret() string
}

type CreateOrderRequest struct {
	Amount    int64  `json:"amount" validate:"required,gt=0,lte=10000000"`
	Currency  string `json:"currency" validate:"required"`
	SkillID   string `json:"skill_id" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`
	SkillName string `json:"skill_name"`
}

type CreateOrderResult struct {
	Order *razorpay.Order `json:"order"`
	Key   string          `json:"key"`
}

type OrderService struct {
	gateway Gateway
	log     *utils.Logger
	now     func() time.Time
}

func NewOrderService(gateway Gateway, baseLog *utils.Logger) *OrderService {
	return &OrderService{
		gateway: gateway,
		log:     baseLog.With("function", "create-razorpay-order"),
		now:     time.Now,
	}
}

func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if errs := utils.ValidateStruct(&req); errs != nil {
		if msg, ok := errs["amount"]; ok && len(errs) == 1 && msg != "amount is required" {
			return nil, apperr.Validation("amount must be a positive integer no greater than %d paise", MaxOrderAmount)
		}
		return nil, apperr.Validation("Missing required fields")
	}
	if !s.gateway.Configured() {
		s.log.Error("gateway credentials missing")
		return nil, apperr.New(http.StatusInternalServerError, apperr.CodeOrderService, razorpay.ErrMissingCredentials)
	}

	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  fmt.Sprintf("skill_%s_user_%s_%d", req.SkillID, req.UserID, s.now().UnixMilli()),
		Notes: map[string]string{
			"skill_id":   req.SkillID,
			"user_id":    req.UserID,
			"skill_name": req.SkillName,
		},
	})
	if err != nil {
		s.log.Error("razorpay order creation failed", "skill_id", req.SkillID, "error", err)
		return nil, orderError(err)
	}

	s.log.Info("razorpay order created", "order_id", order.ID, "amount", order.Amount, "skill_id", req.SkillID)
	return &CreateOrderResult{Order: order, Key: s.gateway.KeyID()}, nil
}

func orderError(err error) error {
	var apiErr *razorpay.APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Timeout(fmt.Errorf("Razorpay order request timed out: %w", err))
	case errors.As(err, &apiErr):
		return apperr.New(apiErr.Status, apperr.CodeOrderService, errors.New("Failed to create Razorpay order"))
	default:
		return apperr.New(http.StatusInternalServerError, apperr.CodeOrderService, fmt.Errorf("Internal server error: %w", err))
	}
}
