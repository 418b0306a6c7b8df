package enrollment

import (
	"context"

	"skillhub/backend/apperr"
	"skillhub/backend/models"

	"github.com/google/uuid"
)

type EventKind int

const (
	EventCompleted EventKind = iota + 1
	EventDismissed
	EventFailed
)

// WidgetEvent is the single outcome a checkout widget reports.
type WidgetEvent struct {
	Kind        EventKind
	PaymentID   string
	Signature   string
	Description string
}

// Widget opens a checkout and reports its outcome on the returned channel.
// The manager reads at most one event per checkout.
type Widget interface {
	Open(ctx context.Context, checkout *Checkout) (<-chan WidgetEvent, error)
}

// Enroll runs the whole flow for one skill. Free skills are enrolled directly;
// paid skills go through checkout and wait for the widget. A cancelled ctx or a
// widget that closes without an event counts as a dismissal.
func (m *Manager) Enroll(ctx context.Context, userID uuid.UUID, skill *models.Skill, widget Widget) (*Result, error) {
	if IsFree(skill.Price) {
		if err := m.EnrollFree(ctx, userID, skill); err != nil && !apperr.Is(err, apperr.CodeConflict) {
			return &Result{State: NotEnrolled}, err
		}
		return &Result{State: Enrolled}, nil
	}

	state, err := m.CheckExistingAccess(ctx, userID, skill)
	if err != nil {
		return &Result{State: NotEnrolled}, err
	}
	if state == Enrolled {
		return &Result{State: Enrolled}, nil
	}

	order, err := m.CreateOrder(ctx, userID, skill)
	if err != nil {
		return &Result{State: NotEnrolled}, err
	}
	checkout, purchase, err := m.recordCheckout(ctx, userID, skill, order)
	if err != nil {
		// The gateway order exists but nothing may be paid against it.
		return &Result{State: OrderCreated, Message: "Could not start checkout. Please try again."}, err
	}

	events, err := widget.Open(ctx, checkout)
	if err != nil {
		m.log.Error("checkout widget failed to open", "purchase_id", purchase.ID, "error", err)
		return m.FailPayment(context.WithoutCancel(ctx), userID, purchase.ID, "Checkout could not be opened")
	}

	var (
		ev WidgetEvent
		ok bool
	)
	select {
	case ev, ok = <-events:
	case <-ctx.Done():
	}
	if !ok {
		return m.DismissPayment(context.WithoutCancel(ctx), userID, purchase.ID)
	}

	switch ev.Kind {
	case EventCompleted:
		return m.CompletePayment(ctx, userID, purchase.ID, ev.PaymentID, ev.Signature)
	case EventFailed:
		return m.FailPayment(ctx, userID, purchase.ID, ev.Description)
	default:
		return m.DismissPayment(ctx, userID, purchase.ID)
	}
}
