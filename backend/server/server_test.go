package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skillhub/backend/config"
	"skillhub/backend/models"
	"skillhub/backend/services/razorpay/razorpaytest"
	"skillhub/backend/store/storetest"
	"skillhub/backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	t       *testing.T
	srv     *Server
	gateway *razorpaytest.Server
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	gw := razorpaytest.NewServer(t)
	cfg := &config.Config{
		JWTSecret:         "testsecret",
		RazorpayKeyID:     razorpaytest.KeyID,
		RazorpayKeySecret: razorpaytest.KeySecret,
		RazorpayBaseURL:   gw.URL,
		Currency:          "INR",
		RemoteTimeout:     5 * time.Second,
	}
	return &testEnv{t: t, srv: New(cfg, storetest.OpenDB(t), utils.NopLogger()), gateway: gw}
}

// do sends a JSON request and decodes the JSON answer.
func (e *testEnv) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		jsonData, _ := json.Marshal(body)
		reader = bytes.NewBuffer(jsonData)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.srv.App.Test(req, -1)
	require.NoError(e.t, err)

	var result map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

func (e *testEnv) register(email string) string {
	e.t.Helper()
	status, result := e.do(http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email": email, "password": "secret123", "username": "learner",
	})
	require.Equal(e.t, http.StatusCreated, status, result)
	return result["token"].(string)
}

func (e *testEnv) seedSkill(slug, price string) (*models.Skill, []models.Content) {
	e.t.Helper()
	return storetest.SeedSkill(e.t, e.srv.Store.DB(), slug, price)
}

func data(result map[string]interface{}) map[string]interface{} {
	return result["data"].(map[string]interface{})
}

func TestRegisterLoginSession(t *testing.T) {
	e := setup(t)
	token := e.register("asha@example.com")

	status, result := e.do(http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email": "asha@example.com", "password": "secret123", "username": "again",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, result["success"])

	status, result = e.do(http.MethodPost, "/api/auth/register", "", map[string]interface{}{"email": "nope"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, result["details"], "password")

	status, _ = e.do(http.MethodPost, "/api/auth/login", "", map[string]interface{}{"email": "asha@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, result = e.do(http.MethodPost, "/api/auth/login", "", map[string]interface{}{"email": "ASHA@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, result["token"])
	assert.Equal(t, false, result["has_filled_form"])

	status, _ = e.do(http.MethodGet, "/api/auth/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, result = e.do(http.MethodPost, "/api/user/form", token, map[string]interface{}{"name": "Asha Rao", "phone": "9999999999"})
	assert.Equal(t, http.StatusCreated, status, result)

	status, _ = e.do(http.MethodPost, "/api/user/form", token, map[string]interface{}{"name": "Again"})
	assert.Equal(t, http.StatusConflict, status)

	status, result = e.do(http.MethodGet, "/api/auth/session", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, result["has_filled_form"])
	assert.Equal(t, "asha@example.com", result["user"].(map[string]interface{})["email"])
}

func TestFreeSkillFlow(t *testing.T) {
	e := setup(t)
	token := e.register("asha@example.com")
	_, contents := e.seedSkill("basics", "")

	status, result := e.do(http.MethodGet, "/api/skills", "", nil)
	require.Equal(t, http.StatusOK, status)
	list := result["data"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, true, list[0].(map[string]interface{})["is_free"])

	status, _ = e.do(http.MethodGet, "/api/skills/basics/content", token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, result = e.do(http.MethodGet, "/api/skills/basics", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "not_enrolled", data(result)["state"])

	for i := 0; i < 2; i++ {
		status, result = e.do(http.MethodPost, "/api/skills/basics/enroll", token, nil)
		require.Equal(t, http.StatusOK, status, result)
		assert.Equal(t, "enrolled", result["state"])
	}

	item := contents[0].ID.String()
	status, result = e.do(http.MethodPost, "/api/contents/"+item+"/open", token, nil)
	require.Equal(t, http.StatusOK, status, result)
	assert.Equal(t, float64(25), data(result)["progress"])

	status, result = e.do(http.MethodPost, "/api/contents/"+item+"/toggle", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(100), data(result)["progress"])

	status, _ = e.do(http.MethodPut, "/api/contents/"+item+"/progress", token, map[string]interface{}{"progress": 30})
	assert.Equal(t, http.StatusBadRequest, status)

	status, result = e.do(http.MethodGet, "/api/skills/basics/content", token, nil)
	require.Equal(t, http.StatusOK, status)
	stats := data(result)["stats"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["completed"])
	assert.Equal(t, float64(2), stats["total"])

	status, result = e.do(http.MethodGet, "/api/overview", token, nil)
	require.Equal(t, http.StatusOK, status)
	overview := result["data"].([]interface{})
	require.Len(t, overview, 1)
	assert.Equal(t, float64(50), overview[0].(map[string]interface{})["percent"])
}

// checkout enrolls in a paid skill and returns the purchase id and order id.
func (e *testEnv) checkout(token, slug string) (string, string) {
	e.t.Helper()
	status, result := e.do(http.MethodPost, "/api/skills/"+slug+"/enroll", token, nil)
	require.Equal(e.t, http.StatusCreated, status, result)
	assert.Equal(e.t, "awaiting_payment", result["state"])

	co := result["checkout"].(map[string]interface{})
	assert.Equal(e.t, razorpaytest.KeyID, co["key"])
	purchase := result["purchase"].(map[string]interface{})
	assert.Equal(e.t, "pending", purchase["status"])
	return co["purchase_id"].(string), co["order"].(map[string]interface{})["id"].(string)
}

func TestPaidSkillFlow(t *testing.T) {
	e := setup(t)
	token := e.register("asha@example.com")
	e.seedSkill("python", "499")

	purchaseID, orderID := e.checkout(token, "python")
	assert.Equal(t, int64(49900), e.gateway.OrderRequests()[0].Amount)

	status, _ := e.do(http.MethodGet, "/api/skills/python/content", token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	sig := e.gateway.Capture(orderID, "pay_1")
	status, result := e.do(http.MethodPost, "/api/purchases/"+purchaseID+"/complete", token, map[string]interface{}{
		"razorpay_payment_id": "pay_1", "razorpay_signature": sig,
	})
	require.Equal(t, http.StatusOK, status, result)
	assert.Equal(t, "enrolled", result["state"])

	status, result = e.do(http.MethodGet, "/api/purchases/"+purchaseID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", data(result)["status"])
	assert.Equal(t, true, data(result)["verified"])

	status, _ = e.do(http.MethodGet, "/api/skills/python/content", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, result = e.do(http.MethodPost, "/api/skills/python/enroll", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "enrolled", result["state"])
	assert.Len(t, e.gateway.OrderRequests(), 1)

	other := e.register("other@example.com")
	status, _ = e.do(http.MethodGet, "/api/purchases/"+purchaseID, other, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPaidSkillDismissAndFail(t *testing.T) {
	e := setup(t)
	token := e.register("asha@example.com")
	e.seedSkill("python", "499")

	purchaseID, _ := e.checkout(token, "python")
	status, result := e.do(http.MethodPost, "/api/purchases/"+purchaseID+"/dismiss", token, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "payment_cancelled", result["state"])
	assert.Equal(t, "payment_cancelled", result["code"])

	status, result = e.do(http.MethodPost, "/api/purchases/"+purchaseID+"/fail", token, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", result["code"])

	purchaseID, _ = e.checkout(token, "python")
	status, result = e.do(http.MethodPost, "/api/purchases/"+purchaseID+"/fail", token, map[string]interface{}{"description": "Card declined"})
	assert.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, "payment_failed", result["state"])
	assert.Equal(t, "Card declined", result["message"])

	status, result = e.do(http.MethodGet, "/api/skills/python/purchases", token, nil)
	require.Equal(t, http.StatusOK, status)
	rows := result["data"].([]interface{})
	require.Len(t, rows, 2)
	assert.Equal(t, "cancelled", rows[0].(map[string]interface{})["status"])
	assert.Equal(t, "failed", rows[1].(map[string]interface{})["status"])
}

func TestCompleteWithBadSignature(t *testing.T) {
	e := setup(t)
	token := e.register("asha@example.com")
	e.seedSkill("python", "499")

	purchaseID, orderID := e.checkout(token, "python")
	e.gateway.Capture(orderID, "pay_1")

	status, result := e.do(http.MethodPost, "/api/purchases/"+purchaseID+"/complete", token, map[string]interface{}{
		"razorpay_payment_id": "pay_1", "razorpay_signature": "forged",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "verification_failed", result["state"])
	assert.Equal(t, "Invalid signature", result["message"])
	assert.Equal(t, "failed", result["purchase"].(map[string]interface{})["status"])

	status, _ = e.do(http.MethodGet, "/api/skills/python/content", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestFunctionsPreflightThroughApp(t *testing.T) {
	e := setup(t)
	req := httptest.NewRequest(http.MethodOptions, "/functions/v1/verify-payment", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := e.srv.App.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "authorization, x-client-info, apikey, content-type", resp.Header.Get("Access-Control-Allow-Headers"))
}
