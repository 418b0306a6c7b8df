package controllers

import (
	"skillhub/backend/apperr"
	"skillhub/backend/services/enrollment"
	"skillhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func parseUUID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid %s", what)
	}
	return id, nil
}

// renderOutcome writes an enrollment result. A result that ended anywhere but
// Enrolled carries the error's status and code.
func renderOutcome(c *fiber.Ctx, res *enrollment.Result, err error) error {
	if res == nil {
		return utils.AppError(c, err)
	}

	status := fiber.StatusOK
	resp := fiber.Map{
		"success":  err == nil,
		"state":    res.State,
		"purchase": res.Purchase,
	}
	if res.Checkout != nil {
		resp["checkout"] = res.Checkout
	}
	msg := res.Message
	if err != nil {
		status = apperr.Status(err)
		resp["code"] = apperr.Code(err)
		if msg == "" {
			msg = err.Error()
		}
	}
	if msg != "" {
		resp["message"] = msg
	}
	return c.Status(status).JSON(resp)
}
