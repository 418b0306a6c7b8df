package payments

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"skillhub/backend/apperr"
	"skillhub/backend/models"
	"skillhub/backend/services/razorpay"
	"skillhub/backend/store/storetest"
	"skillhub/backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret"

type fakeGateway struct {
	keyID, keySecret string
	order            *razorpay.Order
	orderErr         error
	lastOrder        razorpay.OrderRequest
	payment          *razorpay.Payment
	paymentErr       error
	fetches          int
}

func (g *fakeGateway) CreateOrder(_ context.Context, req razorpay.OrderRequest) (*razorpay.Order, error) {
	g.lastOrder = req
	if g.orderErr != nil {
		return nil, g.orderErr
	}
	return g.order, nil
}

func (g *fakeGateway) FetchPayment(_ context.Context, _ string) (*razorpay.Payment, error) {
	g.fetches++
	if g.paymentErr != nil {
		return nil, g.paymentErr
	}
	return g.payment, nil
}

func (g *fakeGateway) Configured() bool  { return g.keyID != "" && g.keySecret != "" }
func (g *fakeGateway) KeyID() string     { return g.keyID }
func (g *fakeGateway) KeySecret() string { return g.keySecret }

func newGateway() *fakeGateway {
	return &fakeGateway{
		keyID:     "rzp_test_key",
		keySecret: testSecret,
		order:     &razorpay.Order{ID: "order_123", Amount: 49900, Currency: "INR", Status: "created"},
		payment:   &razorpay.Payment{ID: "pay_456", OrderID: "order_123", Status: "captured", Amount: 49900},
	}
}

func validOrder() CreateOrderRequest {
	return CreateOrderRequest{Amount: 49900, Currency: "INR", SkillID: "skill-1", UserID: "user-1", SkillName: "Python"}
}

func TestCreateOrder(t *testing.T) {
	gw := newGateway()
	svc := NewOrderService(gw, utils.NopLogger())
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	res, err := svc.CreateOrder(context.Background(), validOrder())
	require.NoError(t, err)
	assert.Equal(t, "order_123", res.Order.ID)
	assert.Equal(t, "rzp_test_key", res.Key)

	assert.Equal(t, "skill_skill-1_user_user-1_1700000000000", gw.lastOrder.Receipt)
	assert.Equal(t, int64(49900), gw.lastOrder.Amount)
	assert.Equal(t, map[string]string{"skill_id": "skill-1", "user_id": "user-1", "skill_name": "Python"}, gw.lastOrder.Notes)
}

func TestCreateOrderValidation(t *testing.T) {
	svc := NewOrderService(newGateway(), utils.NopLogger())

	cases := map[string]func(r *CreateOrderRequest){
		"missing amount":   func(r *CreateOrderRequest) { r.Amount = 0 },
		"missing currency": func(r *CreateOrderRequest) { r.Currency = "" },
		"missing skill":    func(r *CreateOrderRequest) { r.SkillID = "" },
		"missing user":     func(r *CreateOrderRequest) { r.UserID = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validOrder()
			mutate(&req)
			_, err := svc.CreateOrder(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
			assert.Equal(t, "Missing required fields", err.Error())
		})
	}

	for _, amount := range []int64{-5, MaxOrderAmount + 1} {
		req := validOrder()
		req.Amount = amount
		_, err := svc.CreateOrder(context.Background(), req)
		assert.True(t, apperr.Is(err, apperr.CodeValidation), "amount %d", amount)
		assert.Contains(t, err.Error(), "amount")
	}

	req := validOrder()
	req.Amount = MaxOrderAmount
	_, err := svc.CreateOrder(context.Background(), req)
	assert.NoError(t, err)
}

func TestCreateOrderGatewayErrors(t *testing.T) {
	gw := newGateway()
	gw.keySecret = ""
	_, err := NewOrderService(gw, utils.NopLogger()).CreateOrder(context.Background(), validOrder())
	assert.Equal(t, http.StatusInternalServerError, apperr.Status(err))
	assert.Equal(t, "Razorpay configuration missing", err.Error())

	gw = newGateway()
	gw.orderErr = &razorpay.APIError{Status: http.StatusUnauthorized, Body: `{"error":{}}`}
	_, err = NewOrderService(gw, utils.NopLogger()).CreateOrder(context.Background(), validOrder())
	assert.Equal(t, http.StatusUnauthorized, apperr.Status(err))
	assert.Equal(t, "Failed to create Razorpay order", err.Error())

	gw.orderErr = context.DeadlineExceeded
	_, err = NewOrderService(gw, utils.NopLogger()).CreateOrder(context.Background(), validOrder())
	assert.True(t, apperr.Is(err, apperr.CodeTimeout))
}

type verifyFixture struct {
	gw       *fakeGateway
	svc      *VerificationService
	purchase *models.Purchase
}

func newVerifyFixture(t *testing.T) *verifyFixture {
	t.Helper()
	s := storetest.Open(t)
	skill, _ := storetest.SeedSkill(t, s.DB(), "python", "499")
	user := &models.User{Email: "learner@example.com", PasswordHash: "x"}
	_, err := s.CreateUser(context.Background(), user, "learner")
	require.NoError(t, err)

	p := &models.Purchase{UserID: user.ID, SkillID: skill.ID, Amount: 49900, Currency: "INR", RazorpayOrderID: "order_123"}
	require.NoError(t, s.InsertPurchase(context.Background(), p))

	gw := newGateway()
	return &verifyFixture{gw: gw, svc: NewVerificationService(gw, s, utils.NopLogger()), purchase: p}
}

func (f *verifyFixture) request() VerifyRequest {
	return VerifyRequest{
		RazorpayOrderID:   "order_123",
		RazorpayPaymentID: "pay_456",
		RazorpaySignature: razorpay.Sign(testSecret, "order_123", "pay_456"),
		SkillID:           f.purchase.SkillID.String(),
		UserID:            f.purchase.UserID.String(),
		PurchaseID:        f.purchase.ID.String(),
	}
}

func TestVerifySettlesPurchase(t *testing.T) {
	f := newVerifyFixture(t)

	res, err := f.svc.Verify(context.Background(), f.request())
	require.NoError(t, err)
	assert.Equal(t, "pay_456", res.Payment.ID)
	assert.Equal(t, models.PurchaseSuccess, res.Purchase.Status)
	assert.True(t, res.Purchase.Verified)
	require.NotNil(t, res.Purchase.RazorpayPaymentID)
	assert.Equal(t, "pay_456", *res.Purchase.RazorpayPaymentID)

	again, err := f.svc.Verify(context.Background(), f.request())
	require.NoError(t, err)
	assert.Equal(t, res.Purchase.ID, again.Purchase.ID)
}

func TestVerifyRejectsBadSignatureBeforeFetching(t *testing.T) {
	f := newVerifyFixture(t)
	req := f.request()
	req.RazorpaySignature = strings.ToUpper(req.RazorpaySignature)

	_, err := f.svc.Verify(context.Background(), req)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidSignature))
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
	assert.Equal(t, 0, f.gw.fetches)
}

func TestVerifyRejectsUncapturedPayment(t *testing.T) {
	f := newVerifyFixture(t)
	f.gw.payment.Status = "authorized"

	_, err := f.svc.Verify(context.Background(), f.request())
	assert.True(t, apperr.Is(err, apperr.CodePaymentNotCaptured))
	assert.Equal(t, "Payment not captured", err.Error())
}

func TestVerifyRejectsPaymentForAnotherOrder(t *testing.T) {
	f := newVerifyFixture(t)
	f.gw.payment.OrderID = "order_999"

	_, err := f.svc.Verify(context.Background(), f.request())
	assert.True(t, apperr.Is(err, apperr.CodeOrderMismatch))
}

func TestVerifyGatewayFailures(t *testing.T) {
	f := newVerifyFixture(t)
	f.gw.paymentErr = errors.New("connection reset")
	_, err := f.svc.Verify(context.Background(), f.request())
	assert.Equal(t, http.StatusInternalServerError, apperr.Status(err))

	f.gw.paymentErr = context.DeadlineExceeded
	_, err = f.svc.Verify(context.Background(), f.request())
	assert.True(t, apperr.Is(err, apperr.CodeTimeout))

	f.gw.paymentErr = &razorpay.APIError{Status: http.StatusNotFound, Body: `{"error":{"code":"BAD_REQUEST_ERROR"}}`}
	_, err = f.svc.Verify(context.Background(), f.request())
	assert.True(t, apperr.Is(err, apperr.CodePaymentNotCaptured))
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))

	f.gw.paymentErr = &razorpay.APIError{Status: http.StatusBadGateway}
	_, err = f.svc.Verify(context.Background(), f.request())
	assert.Equal(t, http.StatusInternalServerError, apperr.Status(err))

	f.gw.paymentErr = nil
	f.gw.keySecret = ""
	_, err = f.svc.Verify(context.Background(), f.request())
	assert.Equal(t, "Razorpay configuration missing", err.Error())
}

func TestVerifyRequiresFields(t *testing.T) {
	f := newVerifyFixture(t)
	req := f.request()
	req.RazorpayPaymentID = ""

	_, err := f.svc.Verify(context.Background(), req)
	assert.Equal(t, "Missing required fields", err.Error())

	req = f.request()
	req.UserID = "not-a-uuid"
	_, err = f.svc.Verify(context.Background(), req)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}
