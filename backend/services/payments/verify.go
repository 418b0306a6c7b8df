package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"skillhub/backend/apperr"
	"skillhub/backend/models"
	"skillhub/backend/services/razorpay"
	"skillhub/backend/store"
	"skillhub/backend/utils"

	"github.com/google/uuid"
)

const capturedStatus = "captured"

// PurchaseWriter settles a pending purchase once its payment is verified.
type PurchaseWriter interface {
	MarkPurchaseVerified(ctx context.Context, vp store.VerifiedPayment) (*models.Purchase, error)
}

type VerifyRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
	SkillID           string `json:"skill_id"`
	UserID            string `json:"user_id"`
	PurchaseID        string `json:"purchase_id,omitempty"`
}

type VerifyResult struct {
	Payment  *razorpay.Payment `json:"payment"`
	Purchase *models.Purchase  `json:"purchase"`
}

// VerificationService is the only component that marks a purchase verified.
type VerificationService struct {
	gateway   Gateway
	purchases PurchaseWriter
	log       *utils.Logger
}

func NewVerificationService(gateway Gateway, purchases PurchaseWriter, baseLog *utils.Logger) *VerificationService {
	return &VerificationService{
		gateway:   gateway,
		purchases: purchases,
		log:       baseLog.With("function", "verify-payment"),
	}
}

// Verify checks the signature, then that the gateway captured the payment for
// this order, then settles the purchase.
func (s *VerificationService) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	if errs := utils.ValidateStruct(&req); errs != nil {
		return nil, apperr.Validation("Missing required fields")
	}
	vp, err := parseIdentity(req)
	if err != nil {
		return nil, err
	}
	if !s.gateway.Configured() {
		s.log.Error("gateway credentials missing")
		return nil, apperr.New(http.StatusInternalServerError, apperr.CodeVerificationFailed, razorpay.ErrMissingCredentials)
	}

	log := s.log.With("order_id", req.RazorpayOrderID, "payment_id", req.RazorpayPaymentID)

	if !razorpay.VerifySignature(s.gateway.KeySecret(), req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		log.Warn("signature mismatch")
		return nil, apperr.InvalidSignature()
	}

	payment, err := s.gateway.FetchPayment(ctx, req.RazorpayPaymentID)
	if err != nil {
		log.Error("payment lookup failed", "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Timeout(fmt.Errorf("Razorpay payment lookup timed out: %w", err))
		}
		var apiErr *razorpay.APIError
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			// Unknown or foreign payment ids never reached capture.
			return nil, apperr.PaymentNotCaptured()
		}
		return nil, apperr.New(http.StatusInternalServerError, apperr.CodeVerificationFailed, errors.New("Could not fetch payment from Razorpay"))
	}
	if payment.Status != capturedStatus {
		log.Warn("payment not captured", "status", payment.Status)
		return nil, apperr.PaymentNotCaptured()
	}
	if payment.OrderID != req.RazorpayOrderID {
		log.Warn("payment belongs to another order", "payment_order_id", payment.OrderID)
		return nil, apperr.OrderMismatch()
	}

	purchase, err := s.purchases.MarkPurchaseVerified(ctx, vp)
	if err != nil {
		log.Error("purchase update failed after verification", "error", err)
		if apperr.Is(err, apperr.CodeStoreUnavailable) {
			return nil, apperr.New(http.StatusInternalServerError, apperr.CodeStoreUnavailable,
				fmt.Errorf("Payment verified but DB update failed: %w", err))
		}
		return nil, err
	}

	log.Info("payment verified", "purchase_id", purchase.ID)
	return &VerifyResult{Payment: payment, Purchase: purchase}, nil
}

func parseIdentity(req VerifyRequest) (store.VerifiedPayment, error) {
	vp := store.VerifiedPayment{
		OrderID:   req.RazorpayOrderID,
		PaymentID: req.RazorpayPaymentID,
		Signature: req.RazorpaySignature,
	}
	var err error
	if req.UserID != "" {
		if vp.UserID, err = uuid.Parse(req.UserID); err != nil {
			return vp, apperr.Validation("invalid user_id")
		}
	}
	if req.SkillID != "" {
		if vp.SkillID, err = uuid.Parse(req.SkillID); err != nil {
			return vp, apperr.Validation("invalid skill_id")
		}
	}
	if req.PurchaseID != "" {
		id, err := uuid.Parse(req.PurchaseID)
		if err != nil {
			return vp, apperr.Validation("invalid purchase_id")
		}
		vp.PurchaseID = &id
	}
	return vp, nil
}
