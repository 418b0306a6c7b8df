package enrollment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"skillhub/backend/apperr"
	"skillhub/backend/models"
	"skillhub/backend/services/payments"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const verificationFailedMessage = "Payment verification failed. If money was deducted, contact support with your payment id."

// Order is the gateway order a purchase is opened against.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Key      string `json:"-"`
}

type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// Checkout is everything the payment widget needs to open.
type Checkout struct {
	Key         string    `json:"key"`
	Order       Order     `json:"order"`
	PurchaseID  uuid.UUID `json:"purchase_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Prefill     Prefill   `json:"prefill"`
}

// CreateOrder asks the order function for an order of round(price*100)
// paise.
func (m *Manager) CreateOrder(ctx context.Context, userID uuid.UUID, skill *models.Skill) (*Order, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(skill.Price), 64)
	if err != nil || math.IsNaN(price) || price <= 0 {
		return nil, apperr.OrderService("skill %s has no payable price %q", skill.Slug, skill.Price)
	}
	amount := int64(math.Round(price * 100))

	ctx, cancel := m.remote(ctx)
	defer cancel()

	res, err := m.orders.CreateOrder(ctx, payments.CreateOrderRequest{
		Amount:    amount,
		Currency:  m.currency,
		SkillID:   skill.ID.String(),
		UserID:    userID.String(),
		SkillName: skill.Name,
	})
	if err != nil {
		m.log.Error("order creation failed", "user_id", userID, "skill_id", skill.ID, "error", err)
		if apperr.Is(err, apperr.CodeTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Timeout(err)
		}
		return nil, apperr.OrderService("%s", err.Error())
	}
	if res == nil || res.Order == nil || res.Order.ID == "" {
		return nil, apperr.OrderService("order service returned no order")
	}

	return &Order{ID: res.Order.ID, Amount: res.Order.Amount, Currency: res.Order.Currency, Key: res.Key}, nil
}

// BeginCheckout creates the order, records the pending purchase and returns
// the widget descriptor. The widget never opens without the pending row.
func (m *Manager) BeginCheckout(ctx context.Context, userID uuid.UUID, skill *models.Skill) (*Checkout, *models.Purchase, error) {
	order, err := m.CreateOrder(ctx, userID, skill)
	if err != nil {
		return nil, nil, err
	}
	return m.recordCheckout(ctx, userID, skill, order)
}

// recordCheckout inserts the pending purchase for an order already created.
func (m *Manager) recordCheckout(ctx context.Context, userID uuid.UUID, skill *models.Skill, order *Order) (*Checkout, *models.Purchase, error) {
	purchase := &models.Purchase{
		UserID:          userID,
		SkillID:         skill.ID,
		Amount:          order.Amount,
		Currency:        order.Currency,
		RazorpayOrderID: order.ID,
		Metadata:        datatypes.JSONMap{"skill_name": skill.Name, "skill_slug": skill.Slug},
	}
	if err := m.store.InsertPurchase(ctx, purchase); err != nil {
		m.log.Error("pending purchase insert failed", "order_id", order.ID, "error", err)
		return nil, nil, err
	}

	checkout := &Checkout{
		Key:         order.Key,
		Order:       *order,
		PurchaseID:  purchase.ID,
		Name:        skill.Name,
		Description: fmt.Sprintf("Enrollment in %s", skill.Name),
		Prefill:     m.prefill(ctx, userID),
	}
	m.log.Info("checkout opened", "purchase_id", purchase.ID, "order_id", order.ID, "amount", order.Amount)
	return checkout, purchase, nil
}

func (m *Manager) prefill(ctx context.Context, userID uuid.UUID) Prefill {
	var p Prefill
	if profile, err := m.store.GetProfile(ctx, userID); err == nil {
		p.Name, p.Email = profile.Username, profile.Email
	}
	if form, err := m.store.GetUserForm(ctx, userID); err == nil && form != nil {
		p.Name, p.Contact = form.Name, form.Phone
	}
	return p
}

// CompletePayment handles the widget's success callback: it records the
// payment id and signature on the pending purchase and verifies them.
func (m *Manager) CompletePayment(ctx context.Context, userID, purchaseID uuid.UUID, paymentID, signature string) (*Result, error) {
	if paymentID == "" || signature == "" {
		return nil, apperr.Validation("payment id and signature are required")
	}
	p, err := m.ownPurchase(ctx, userID, purchaseID)
	if err != nil {
		return nil, err
	}
	if p.Status == models.PurchaseSuccess && p.Verified {
		if err := m.ensureEnrollment(ctx, p.UserID, p.SkillID); err != nil {
			return nil, err
		}
		return &Result{State: Enrolled, Purchase: p}, nil
	}

	if err := m.store.AttachPayment(ctx, p.ID, paymentID, signature); err != nil {
		return nil, err
	}
	return m.VerifyPayment(ctx, p, paymentID, signature)
}

// DismissPayment handles the widget being closed without paying.
func (m *Manager) DismissPayment(ctx context.Context, userID, purchaseID uuid.UUID) (*Result, error) {
	return m.finish(ctx, userID, purchaseID, models.PurchaseCancelled, apperr.PaymentCancelled())
}

// FailPayment handles the widget's failure callback.
func (m *Manager) FailPayment(ctx context.Context, userID, purchaseID uuid.UUID, description string) (*Result, error) {
	return m.finish(ctx, userID, purchaseID, models.PurchaseFailed, apperr.PaymentFailed(description))
}

func (m *Manager) finish(ctx context.Context, userID, purchaseID uuid.UUID, status models.PurchaseStatus, outcome *apperr.Error) (*Result, error) {
	p, err := m.ownPurchase(ctx, userID, purchaseID)
	if err != nil {
		return nil, err
	}
	if err := m.store.FinishPurchase(ctx, p.ID, status); err != nil {
		return nil, err
	}
	p.Status, p.Verified = status, false

	state := PaymentCancelled
	if status == models.PurchaseFailed {
		state = PaymentFailed
	}
	m.log.Info("payment not completed", "purchase_id", p.ID, "status", status, "reason", outcome.Error())
	return &Result{State: state, Message: outcome.Error(), Purchase: p}, outcome
}

// VerifyPayment asks the verification function to settle the purchase. On
// success it inserts the enrollment; otherwise it marks the purchase failed.
// Nothing is retried: a new attempt needs a new order.
func (m *Manager) VerifyPayment(ctx context.Context, p *models.Purchase, paymentID, signature string) (*Result, error) {
	log := m.log.With("purchase_id", p.ID, "order_id", p.RazorpayOrderID)

	rctx, cancel := m.remote(ctx)
	res, err := m.verifier.Verify(rctx, payments.VerifyRequest{
		RazorpayOrderID:   p.RazorpayOrderID,
		RazorpayPaymentID: paymentID,
		RazorpaySignature: signature,
		SkillID:           p.SkillID.String(),
		UserID:            p.UserID.String(),
		PurchaseID:        p.ID.String(),
	})
	cancel()
	if err != nil {
		log.Warn("verification did not succeed", "error", err)
		return m.rejectPayment(ctx, p, err)
	}

	settled := p
	if res != nil && res.Purchase != nil && res.Purchase.ID == p.ID {
		settled = res.Purchase
	} else if current, err := m.store.GetPurchase(ctx, p.ID); err == nil {
		settled = current
	}
	if err := m.ensureEnrollment(ctx, p.UserID, p.SkillID); err != nil {
		log.Error("enrollment insert failed after verified payment", "error", err)
		return &Result{State: Verifying, Message: "Payment verified. Access will be granted shortly.", Purchase: settled}, err
	}

	log.Info("enrolled after verified payment", "user_id", p.UserID, "skill_id", p.SkillID)
	return &Result{State: Enrolled, Purchase: settled}, nil
}

func (m *Manager) rejectPayment(ctx context.Context, p *models.Purchase, cause error) (*Result, error) {
	var reported error
	msg := verificationFailedMessage
	status := apperr.Status(cause)

	switch {
	case apperr.Is(cause, apperr.CodeTimeout) || errors.Is(cause, context.DeadlineExceeded):
		reported = apperr.Timeout(cause)
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		msg = cause.Error()
		reported = apperr.VerificationFailed("%s", msg)
	default:
		reported = apperr.New(http.StatusBadGateway, apperr.CodeVerificationFailed, errors.New(msg))
	}

	// The caller may have given up; the failed mark is still owed.
	wctx := context.WithoutCancel(ctx)
	if ferr := m.store.FinishPurchase(wctx, p.ID, models.PurchaseFailed); ferr != nil {
		if current, gerr := m.store.GetPurchase(wctx, p.ID); gerr == nil && current.Status == models.PurchaseSuccess && current.Verified {
			// A late answer settled it after all.
			if err := m.ensureEnrollment(wctx, p.UserID, p.SkillID); err == nil {
				return &Result{State: Enrolled, Purchase: current}, nil
			}
		}
		m.log.Error("could not mark purchase failed", "purchase_id", p.ID, "error", ferr)
		reported = errors.Join(reported, ferr)
	} else {
		p.Status, p.Verified = models.PurchaseFailed, false
	}

	return &Result{State: VerificationFailed, Message: msg, Purchase: p}, reported
}

// ownPurchase loads a purchase and hides it from anyone but its owner.
func (m *Manager) ownPurchase(ctx context.Context, userID, purchaseID uuid.UUID) (*models.Purchase, error) {
	p, err := m.store.GetPurchase(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, apperr.NotFound("purchase not found")
	}
	return p, nil
}
