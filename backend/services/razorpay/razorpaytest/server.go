// Package razorpaytest runs an in-memory stand-in for the Razorpay REST API.
package razorpaytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"skillhub/backend/services/razorpay"
)

const (
	KeyID     = "rzp_test_key"
	KeySecret = "test_secret"
)

type Server struct {
	*httptest.Server

	mu         sync.Mutex
	seq        int
	orders     map[string]razorpay.Order
	requests   []razorpay.OrderRequest
	payments   map[string]razorpay.Payment
	failStatus int
	delay      time.Duration
}

// NewServer starts a fake gateway that accepts KeyID/KeySecret basic auth.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		orders:   make(map[string]razorpay.Order),
		payments: make(map[string]razorpay.Payment),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/orders", s.createOrder)
	mux.HandleFunc("GET /v1/payments/{id}", s.fetchPayment)
	s.Server = httptest.NewServer(s.authenticate(mux))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) Client() *razorpay.Client {
	return razorpay.NewClient(razorpay.Options{BaseURL: s.URL, KeyID: KeyID, KeySecret: KeySecret})
}

// Capture records a captured payment against orderID and returns the
// signature the checkout widget would report for it.
func (s *Server) Capture(orderID, paymentID string) string {
	s.SetPayment(razorpay.Payment{ID: paymentID, OrderID: orderID, Status: "captured", Captured: true})
	return razorpay.Sign(KeySecret, orderID, paymentID)
}

func (s *Server) SetPayment(p razorpay.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Entity == "" {
		p.Entity = "payment"
	}
	if o, ok := s.orders[p.OrderID]; ok && p.Amount == 0 {
		p.Amount, p.Currency = o.Amount, o.Currency
	}
	s.payments[p.ID] = p
}

// FailWith makes every following call answer with status.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
}

// Delay holds every following response for d.
func (s *Server) Delay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// OrderRequests returns the bodies of every order created so far.
func (s *Server) OrderRequests() []razorpay.OrderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]razorpay.OrderRequest(nil), s.requests...)
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status, delay := s.failStatus, s.delay
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != KeyID || pass != KeySecret {
			writeError(w, http.StatusUnauthorized, "Authentication failed")
			return
		}
		if status != 0 {
			writeError(w, status, "Gateway error")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req razorpay.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.seq++
	order := razorpay.Order{
		ID:        fmt.Sprintf("order_test%04d", s.seq),
		Entity:    "order",
		Amount:    req.Amount,
		AmountDue: req.Amount,
		Currency:  req.Currency,
		Receipt:   req.Receipt,
		Status:    "created",
		Notes:     req.Notes,
		CreatedAt: time.Now().Unix(),
	}
	s.orders[order.ID] = order
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, order)
}

func (s *Server) fetchPayment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p, ok := s.payments[r.PathValue("id")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusBadRequest, "The id provided does not exist")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, description string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{"code": "BAD_REQUEST_ERROR", "description": description},
	})
}
