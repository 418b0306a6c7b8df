// Package functions serves the two gateway functions over HTTP under
// /functions/v1, answering in the {success, ...} envelope their callers expect.
package functions

import (
	"context"
	"time"

	"skillhub/backend/apperr"
	"skillhub/backend/services/payments"
	"skillhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	CreateOrderPath   = "/create-razorpay-order"
	VerifyPaymentPath = "/verify-payment"

	allowHeaders = "authorization, x-client-info, apikey, content-type"
)

type Handler struct {
	Orders   *payments.OrderService
	Verifier *payments.VerificationService
	APIKey   string
	Timeout  time.Duration
	log      *utils.Logger
}

func NewHandler(orders *payments.OrderService, verifier *payments.VerificationService, apiKey string, timeout time.Duration, baseLog *utils.Logger) *Handler {
	return &Handler{
		Orders:   orders,
		Verifier: verifier,
		APIKey:   apiKey,
		Timeout:  timeout,
		log:      baseLog.With("component", "functions"),
	}
}

// Register mounts both functions on router, e.g. app.Group("/functions/v1").
func (h *Handler) Register(router fiber.Router) {
	router.Use(CORS(), h.requireAPIKey)
	router.Post(CreateOrderPath, h.CreateOrder)
	router.Post(VerifyPaymentPath, h.VerifyPayment)
}

// CORS answers preflight with 200 "ok" and stamps the allow headers on every
// response.
func CORS() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		c.Set(fiber.HeaderAccessControlAllowHeaders, allowHeaders)
		if c.Method() == fiber.MethodOptions {
			return c.Status(fiber.StatusOK).SendString("ok")
		}
		return c.Next()
	}
}

func (h *Handler) requireAPIKey(c *fiber.Ctx) error {
	if h.APIKey == "" || c.Get("apikey") == h.APIKey {
		return c.Next()
	}
	return failure(c, apperr.Unauthorized("Invalid API key"))
}

// CreateOrder godoc
// @Summary Create a Razorpay order
// @Tags functions
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /functions/v1/create-razorpay-order [post]
func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	var req payments.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return failure(c, apperr.Validation("Cannot parse JSON"))
	}

	ctx, cancel := h.context(c)
	defer cancel()

	res, err := h.Orders.CreateOrder(ctx, req)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"order":   res.Order,
		"key":     res.Key,
	})
}

// VerifyPayment godoc
// @Summary Verify a Razorpay payment and settle its purchase
// @Tags functions
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /functions/v1/verify-payment [post]
func (h *Handler) VerifyPayment(c *fiber.Ctx) error {
	var req payments.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return failure(c, apperr.Validation("Cannot parse JSON"))
	}

	ctx, cancel := h.context(c)
	defer cancel()

	res, err := h.Verifier.Verify(ctx, req)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Payment verified & stored",
		"payment":  res.Payment,
		"purchase": res.Purchase,
	})
}

func (h *Handler) context(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if h.Timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), h.Timeout)
}

func failure(c *fiber.Ctx, err error) error {
	return c.Status(apperr.Status(err)).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
		"code":    apperr.Code(err),
	})
}
