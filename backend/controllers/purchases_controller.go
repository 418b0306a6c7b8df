package controllers

import (
	"skillhub/backend/apperr"
	"skillhub/backend/config"
	"skillhub/backend/middleware"
	"skillhub/backend/services/enrollment"
	"skillhub/backend/store"
	"skillhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// PurchasesController receives the checkout widget's outcome for a purchase.
type PurchasesController struct {
	Store   *store.Store
	Manager *enrollment.Manager
	Cfg     *config.Config
}

func NewPurchasesController(s *store.Store, manager *enrollment.Manager, cfg *config.Config) *PurchasesController {
	return &PurchasesController{Store: s, Manager: manager, Cfg: cfg}
}

type CompletePaymentRequest struct {
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

type FailPaymentRequest struct {
	Description string `json:"description" example:"Card declined"`
}

// GetPurchase godoc
// @Summary Get a purchase
// @Tags purchases
// @Produce json
// @Param id path string true "Purchase ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /purchases/{id} [get]
func (pc *PurchasesController) GetPurchase(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"), "purchase id")
	if err != nil {
		return utils.AppError(c, err)
	}
	p, err := pc.Store.GetPurchase(c.UserContext(), id)
	if err != nil {
		return utils.AppError(c, err)
	}
	if p.UserID != middleware.UserID(c) {
		return utils.NotFound(c, "purchase not found")
	}
	return utils.Success(c, fiber.StatusOK, p)
}

// ListSkillPurchases godoc
// @Summary Purchase history for a skill
// @Tags purchases
// @Produce json
// @Param slug path string true "Skill slug"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /skills/{slug}/purchases [get]
func (pc *PurchasesController) ListSkillPurchases(c *fiber.Ctx) error {
	skill, err := pc.Store.GetSkillBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return utils.AppError(c, err)
	}
	rows, err := pc.Store.ListPurchases(c.UserContext(), middleware.UserID(c), skill.ID)
	if err != nil {
		return utils.AppError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, rows)
}

// CompletePayment godoc
// @Summary Report a completed payment
// @Description Records the widget's payment id and signature, then verifies them
// @Tags purchases
// @Accept json
// @Produce json
// @Param id path string true "Purchase ID"
// @Param input body CompletePaymentRequest true "Widget response"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /purchases/{id}/complete [post]
func (pc *PurchasesController) CompletePayment(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"), "purchase id")
	if err != nil {
		return utils.AppError(c, err)
	}
	var input CompletePaymentRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(&input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	res, err := pc.Manager.CompletePayment(c.UserContext(), middleware.UserID(c), id, input.RazorpayPaymentID, input.RazorpaySignature)
	return renderOutcome(c, res, err)
}

// DismissPayment godoc
// @Summary Report a dismissed checkout
// @Tags purchases
// @Produce json
// @Param id path string true "Purchase ID"
// @Success 409 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /purchases/{id}/dismiss [post]
func (pc *PurchasesController) DismissPayment(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"), "purchase id")
	if err != nil {
		return utils.AppError(c, err)
	}
	res, err := pc.Manager.DismissPayment(c.UserContext(), middleware.UserID(c), id)
	return renderOutcome(c, res, err)
}

// FailPayment godoc
// @Summary Report a failed payment
// @Tags purchases
// @Accept json
// @Produce json
// @Param id path string true "Purchase ID"
// @Param input body FailPaymentRequest false "Gateway error"
// @Success 402 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /purchases/{id}/fail [post]
func (pc *PurchasesController) FailPayment(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"), "purchase id")
	if err != nil {
		return utils.AppError(c, err)
	}
	var input FailPaymentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return utils.AppError(c, apperr.Validation("Cannot parse JSON"))
		}
	}
	res, err := pc.Manager.FailPayment(c.UserContext(), middleware.UserID(c), id, input.Description)
	return renderOutcome(c, res, err)
}
