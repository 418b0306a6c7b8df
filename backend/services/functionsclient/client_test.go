package functionsclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skillhub/backend/apperr"
	"skillhub/backend/services/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateOrder(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"success":true,"order":{"id":"order_1","amount":49900,"currency":"INR"},"key":"rzp_key"}`,
		func(r *http.Request) {
			assert.Equal(t, createOrderPath, r.URL.Path)
			assert.Equal(t, "anon", r.Header.Get("apikey"))
			assert.Equal(t, "Bearer anon", r.Header.Get("Authorization"))

			var req payments.CreateOrderRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, int64(49900), req.Amount)
			assert.Equal(t, "skill-1", req.SkillID)
		})

	c := New(Options{BaseURL: srv.URL, APIKey: "anon"})
	res, err := c.CreateOrder(context.Background(), payments.CreateOrderRequest{Amount: 49900, Currency: "INR", SkillID: "skill-1", UserID: "u"})
	require.NoError(t, err)
	assert.Equal(t, "order_1", res.Order.ID)
	assert.Equal(t, "rzp_key", res.Key)
}

func TestCreateOrderRemoteFailure(t *testing.T) {
	srv := serve(t, http.StatusBadRequest, `{"success":false,"message":"Missing required fields","code":"validation_error"}`, nil)

	_, err := New(Options{BaseURL: srv.URL}).CreateOrder(context.Background(), payments.CreateOrderRequest{})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
	assert.Equal(t, "Missing required fields", err.Error())
}

func TestCreateOrderSuccessFalseWithOK(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"success":false,"error":"boom"}`, nil)

	_, err := New(Options{BaseURL: srv.URL}).CreateOrder(context.Background(), payments.CreateOrderRequest{})
	assert.True(t, apperr.Is(err, apperr.CodeOrderService))
	assert.Equal(t, http.StatusBadGateway, apperr.Status(err))
	assert.Equal(t, "boom", err.Error())
}

func TestVerify(t *testing.T) {
	srv := serve(t, http.StatusOK,
		`{"success":true,"message":"Payment verified & stored","payment":{"id":"pay_1","status":"captured","order_id":"order_1"},"purchase":{"status":"success","verified":true}}`,
		func(r *http.Request) {
			assert.Equal(t, verifyPaymentPath, r.URL.Path)
		})

	res, err := New(Options{BaseURL: srv.URL}).Verify(context.Background(), payments.VerifyRequest{RazorpayOrderID: "order_1"})
	require.NoError(t, err)
	assert.Equal(t, "pay_1", res.Payment.ID)
	assert.True(t, res.Purchase.Verified)
}

func TestVerifyRejection(t *testing.T) {
	srv := serve(t, http.StatusBadRequest, `{"success":false,"message":"Invalid signature","code":"invalid_signature"}`, nil)

	_, err := New(Options{BaseURL: srv.URL}).Verify(context.Background(), payments.VerifyRequest{})
	assert.True(t, apperr.Is(err, apperr.CodeInvalidSignature))
	assert.Equal(t, "Invalid signature", err.Error())
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := New(Options{BaseURL: srv.URL}).Verify(ctx, payments.VerifyRequest{})
	assert.True(t, apperr.Is(err, apperr.CodeTimeout), "got %v", err)
}
