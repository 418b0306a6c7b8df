// Package enrollment drives a learner from "not enrolled" to "enrolled": free
// skills directly, paid skills through order creation, the checkout widget
// and payment verification.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"skillhub/backend/apperr"
	"skillhub/backend/models"
	"skillhub/backend/services/payments"
	"skillhub/backend/utils"

	"github.com/google/uuid"
)

type State string

const (
	NotEnrolled        State = "not_enrolled"
	OrderCreated       State = "order_created"
	AwaitingPayment    State = "awaiting_payment"
	Verifying          State = "verifying"
	Enrolled           State = "enrolled"
	VerificationFailed State = "verification_failed"
	PaymentFailed      State = "payment_failed"
	PaymentCancelled   State = "payment_cancelled"
)

// Store is the slice of the record store the manager reads and writes.
type Store interface {
	InsertEnrollment(ctx context.Context, userID, skillID uuid.UUID) error
	HasEnrollment(ctx context.Context, userID, skillID uuid.UUID) (bool, error)
	HasVerifiedPurchase(ctx context.Context, userID, skillID uuid.UUID) (bool, error)
	InsertPurchase(ctx context.Context, p *models.Purchase) error
	GetPurchase(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	AttachPayment(ctx context.Context, id uuid.UUID, paymentID, signature string) error
	FinishPurchase(ctx context.Context, id uuid.UUID, status models.PurchaseStatus) error
	ListUnenrolledVerifiedPurchases(ctx context.Context, limit int) ([]models.Purchase, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	GetUserForm(ctx context.Context, userID uuid.UUID) (*models.UserForm, error)
}

// OrderCreator is the order function, in-process or remote.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req payments.CreateOrderRequest) (*payments.CreateOrderResult, error)
}

// PaymentVerifier is the verification function, in-process or remote.
type PaymentVerifier interface {
	Verify(ctx context.Context, req payments.VerifyRequest) (*payments.VerifyResult, error)
}

type Manager struct {
	store    Store
	orders   OrderCreator
	verifier PaymentVerifier
	currency string
	timeout  time.Duration
	log      *utils.Logger
}

type Options struct {
	Currency string
	Timeout  time.Duration
}

func NewManager(store Store, orders OrderCreator, verifier PaymentVerifier, opts Options, baseLog *utils.Logger) *Manager {
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	return &Manager{
		store:    store,
		orders:   orders,
		verifier: verifier,
		currency: opts.Currency,
		timeout:  opts.Timeout,
		log:      baseLog.With("component", "enrollment"),
	}
}

// Result is where an enrollment attempt ended up.
type Result struct {
	State    State            `json:"state"`
	Message  string           `json:"message,omitempty"`
	Purchase *models.Purchase `json:"purchase,omitempty"`
	Checkout *Checkout        `json:"checkout,omitempty"`
}

// IsFree reports whether a skill price needs no payment: empty, numerically
// zero, or "free" in any case.
func IsFree(price string) bool {
	p := strings.TrimSpace(price)
	if p == "" || strings.EqualFold(p, "free") {
		return true
	}
	v, err := strconv.ParseFloat(p, 64)
	return err == nil && v == 0
}

// EnrollFree inserts the enrollment row. A duplicate comes back as a
// conflict, which callers treat as already enrolled.
func (m *Manager) EnrollFree(ctx context.Context, userID uuid.UUID, skill *models.Skill) error {
	if err := m.store.InsertEnrollment(ctx, userID, skill.ID); err != nil {
		if !apperr.Is(err, apperr.CodeConflict) {
			m.log.Error("free enrollment failed", "user_id", userID, "skill_id", skill.ID, "error", err)
		}
		return err
	}
	m.log.Info("enrolled in free skill", "user_id", userID, "skill_id", skill.ID)
	return nil
}

// CheckExistingAccess reports Enrolled when the enrollment row exists. For a
// paid skill with a verified purchase but no row it inserts the row first.
func (m *Manager) CheckExistingAccess(ctx context.Context, userID uuid.UUID, skill *models.Skill) (State, error) {
	enrolled, err := m.store.HasEnrollment(ctx, userID, skill.ID)
	if err != nil {
		return NotEnrolled, err
	}
	if enrolled {
		return Enrolled, nil
	}
	if IsFree(skill.Price) {
		return NotEnrolled, nil
	}

	paid, err := m.store.HasVerifiedPurchase(ctx, userID, skill.ID)
	if err != nil {
		return NotEnrolled, err
	}
	if !paid {
		return NotEnrolled, nil
	}

	m.log.Warn("verified purchase without enrollment, restoring access", "user_id", userID, "skill_id", skill.ID)
	if err := m.ensureEnrollment(ctx, userID, skill.ID); err != nil {
		return NotEnrolled, err
	}
	return Enrolled, nil
}

// ReconcileEnrollments inserts the missing enrollment for every verified
// purchase that lacks one. It returns how many rows it restored.
func (m *Manager) ReconcileEnrollments(ctx context.Context, limit int) (int, error) {
	rows, err := m.store.ListUnenrolledVerifiedPurchases(ctx, limit)
	if err != nil {
		return 0, err
	}

	var (
		restored int
		errs     []error
	)
	for _, p := range rows {
		err := m.store.InsertEnrollment(ctx, p.UserID, p.SkillID)
		switch {
		case err == nil:
			restored++
			m.log.Info("enrollment restored", "purchase_id", p.ID, "user_id", p.UserID, "skill_id", p.SkillID)
		case apperr.Is(err, apperr.CodeConflict):
		default:
			errs = append(errs, fmt.Errorf("purchase %s: %w", p.ID, err))
		}
	}
	return restored, errors.Join(errs...)
}

func (m *Manager) ensureEnrollment(ctx context.Context, userID, skillID uuid.UUID) error {
	err := m.store.InsertEnrollment(ctx, userID, skillID)
	if err != nil && !apperr.Is(err, apperr.CodeConflict) {
		return err
	}
	return nil
}

func (m *Manager) remote(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.timeout)
}
