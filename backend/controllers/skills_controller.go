package controllers

import (
	"context"

	"skillhub/backend/apperr"
	"skillhub/backend/config"
	"skillhub/backend/middleware"
	"skillhub/backend/models"
	"skillhub/backend/services/enrollment"
	"skillhub/backend/services/learning"
	"skillhub/backend/store"
	"skillhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SkillsController struct {
	Store    *store.Store
	Manager  *enrollment.Manager
	Learning *learning.Service
	Cfg      *config.Config
}

func NewSkillsController(s *store.Store, manager *enrollment.Manager, ls *learning.Service, cfg *config.Config) *SkillsController {
	return &SkillsController{Store: s, Manager: manager, Learning: ls, Cfg: cfg}
}

type skillSummary struct {
	models.Skill
	IsFree bool `json:"is_free"`
}

// ListSkills godoc
// @Summary List skills
// @Tags skills
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /skills [get]
func (sc *SkillsController) ListSkills(c *fiber.Ctx) error {
	skills, err := sc.Store.ListSkills(c.UserContext())
	if err != nil {
		return utils.AppError(c, err)
	}

	result := make([]skillSummary, 0, len(skills))
	for _, s := range skills {
		result = append(result, skillSummary{Skill: s, IsFree: enrollment.IsFree(s.Price)})
	}
	return utils.Success(c, fiber.StatusOK, result)
}

// GetSkill godoc
// @Summary Skill details
// @Description Returns the skill, its subskills and the caller's access state
// @Tags skills
// @Produce json
// @Param slug path string true "Skill slug"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /skills/{slug} [get]
func (sc *SkillsController) GetSkill(c *fiber.Ctx) error {
	ctx := c.UserContext()
	skill, err := sc.Store.GetSkillBySlug(ctx, c.Params("slug"))
	if err != nil {
		return utils.AppError(c, err)
	}
	subskills, err := sc.Store.ListSubskills(ctx, skill.ID)
	if err != nil {
		return utils.AppError(c, err)
	}
	state, err := sc.Manager.CheckExistingAccess(ctx, middleware.UserID(c), skill)
	if err != nil {
		return utils.AppError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"skill":     skillSummary{Skill: *skill, IsFree: enrollment.IsFree(skill.Price)},
		"subskills": subskills,
		"state":     state,
	})
}

// Enroll godoc
// @Summary Enroll in a skill
// @Description Free skills are enrolled at once. Paid skills get a pending purchase and a checkout descriptor for the payment widget.
// @Tags skills
// @Produce json
// @Param slug path string true "Skill slug"
// @Success 200 {object} map[string]interface{}
// @Success 201 {object} map[string]interface{}
// @Failure 502 {object} utils.ErrorResponse
// @Failure 504 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /skills/{slug}/enroll [post]
func (sc *SkillsController) Enroll(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := middleware.UserID(c)
	skill, err := sc.Store.GetSkillBySlug(ctx, c.Params("slug"))
	if err != nil {
		return utils.AppError(c, err)
	}

	state, err := sc.Manager.CheckExistingAccess(ctx, userID, skill)
	if err != nil {
		return utils.AppError(c, err)
	}
	if state == enrollment.Enrolled {
		return renderOutcome(c, &enrollment.Result{State: enrollment.Enrolled}, nil)
	}

	if enrollment.IsFree(skill.Price) {
		if err := sc.Manager.EnrollFree(ctx, userID, skill); err != nil && !apperr.Is(err, apperr.CodeConflict) {
			return utils.AppError(c, err)
		}
		return renderOutcome(c, &enrollment.Result{State: enrollment.Enrolled}, nil)
	}

	checkout, purchase, err := sc.Manager.BeginCheckout(ctx, userID, skill)
	if err != nil {
		return utils.AppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"state":    enrollment.AwaitingPayment,
		"checkout": checkout,
		"purchase": purchase,
	})
}

// GetContent godoc
// @Summary Skill content
// @Description Contents grouped by subskill with the caller's progress; requires enrollment
// @Tags skills
// @Produce json
// @Param slug path string true "Skill slug"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /skills/{slug}/content [get]
func (sc *SkillsController) GetContent(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := middleware.UserID(c)
	skill, err := sc.Store.GetSkillBySlug(ctx, c.Params("slug"))
	if err != nil {
		return utils.AppError(c, err)
	}
	if err := requireAccess(ctx, sc.Manager, userID, skill); err != nil {
		return utils.AppError(c, err)
	}

	view, err := sc.Learning.ContentView(ctx, userID, skill.ID)
	if err != nil {
		return utils.AppError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"skill":     skill,
		"subskills": view.Subskills,
		"progress":  view.Progress,
		"stats":     view.Stats,
	})
}

// requireAccess fails with a 403 unless userID is enrolled in skill.
func requireAccess(ctx context.Context, manager *enrollment.Manager, userID uuid.UUID, skill *models.Skill) error {
	state, err := manager.CheckExistingAccess(ctx, userID, skill)
	if err != nil {
		return err
	}
	if state != enrollment.Enrolled {
		return apperr.Forbidden("enroll in %s to access its content", skill.Name)
	}
	return nil
}
