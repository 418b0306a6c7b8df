package controllers

import (
	"strings"

	"skillhub/backend/apperr"
	"skillhub/backend/config"
	"skillhub/backend/middleware"
	"skillhub/backend/models"
	"skillhub/backend/store"
	"skillhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthController struct {
	Store *store.Store
	Cfg   *config.Config
}

func NewAuthController(s *store.Store, cfg *config.Config) *AuthController {
	return &AuthController{Store: s, Cfg: cfg}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required,min=6" example:"secret123"`
	Username string `json:"username" validate:"required,min=3" example:"asha"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register godoc
// @Summary Register a new user
// @Description Creates the identity and profile rows and returns a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "User registration data"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input RegisterRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if errs := utils.ValidateStruct(&input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, err)
	}

	user := models.User{Email: input.Email, PasswordHash: string(hashedPassword)}
	profile, err := ac.Store.CreateUser(c.UserContext(), &user, input.Username)
	if err != nil {
		return utils.AppError(c, err)
	}

	token, err := utils.GenerateJWTToken(user.ID, user.Email, ac.Cfg)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":           token,
		"user":            profile,
		"has_filled_form": false,
	})
}

// Login godoc
// @Summary User login
// @Description Authenticate by email and password and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input LoginRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if errs := utils.ValidateStruct(&input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	user, err := ac.Store.GetUserByEmail(c.UserContext(), input.Email)
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return utils.Unauthorized(c, "Invalid credentials")
		}
		return utils.AppError(c, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return utils.Unauthorized(c, "Invalid credentials")
	}

	token, err := utils.GenerateJWTToken(user.ID, user.Email, ac.Cfg)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, err)
	}

	return ac.session(c, token, user.ID)
}

// Session godoc
// @Summary Current session
// @Description Returns the caller's profile and whether onboarding is done
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /auth/session [get]
func (ac *AuthController) Session(c *fiber.Ctx) error {
	return ac.session(c, "", middleware.UserID(c))
}

func (ac *AuthController) session(c *fiber.Ctx, token string, userID uuid.UUID) error {
	profile, err := ac.Store.GetProfile(c.UserContext(), userID)
	if err != nil {
		return utils.AppError(c, err)
	}
	form, err := ac.Store.GetUserForm(c.UserContext(), userID)
	if err != nil {
		return utils.AppError(c, err)
	}

	resp := fiber.Map{
		"user":            profile,
		"has_filled_form": form != nil,
	}
	if token != "" {
		resp["token"] = token
	}
	return c.JSON(resp)
}
