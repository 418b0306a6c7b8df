package controllers

import (
	"strings"

	"skillhub/backend/config"
	"skillhub/backend/middleware"
	"skillhub/backend/models"
	"skillhub/backend/store"
	"skillhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	Store *store.Store
	Cfg   *config.Config
}

func NewUserController(s *store.Store, cfg *config.Config) *UserController {
	return &UserController{Store: s, Cfg: cfg}
}

type UserFormRequest struct {
	Name    string `json:"name" validate:"required" example:"Asha Rao"`
	Phone   string `json:"phone" validate:"omitempty,min=7" example:"9999999999"`
	Address string `json:"address" example:"Bengaluru"`
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns the dashboard data: profile, onboarding form and enrolled skills
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	ctx := c.UserContext()

	profile, err := uc.Store.GetProfile(ctx, userID)
	if err != nil {
		return utils.AppError(c, err)
	}
	form, err := uc.Store.GetUserForm(ctx, userID)
	if err != nil {
		return utils.AppError(c, err)
	}
	skills, err := uc.Store.ListEnrolledSkills(ctx, userID)
	if err != nil {
		return utils.AppError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"profile":         profile,
		"form":            form,
		"has_filled_form": form != nil,
		"skills":          skills,
	})
}

// SubmitForm godoc
// @Summary Submit onboarding form
// @Description Stores the learner's onboarding details; allowed once
// @Tags users
// @Accept json
// @Produce json
// @Param input body UserFormRequest true "Onboarding data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/form [post]
func (uc *UserController) SubmitForm(c *fiber.Ctx) error {
	var input UserFormRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	input.Name = strings.TrimSpace(input.Name)
	if errs := utils.ValidateStruct(&input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	form := models.UserForm{
		UserID:  middleware.UserID(c),
		Name:    input.Name,
		Phone:   strings.TrimSpace(input.Phone),
		Address: strings.TrimSpace(input.Address),
	}
	if err := uc.Store.CreateUserForm(c.UserContext(), &form); err != nil {
		return utils.AppError(c, err)
	}
	return utils.Created(c, form)
}
