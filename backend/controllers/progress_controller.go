package controllers

import (
	"skillhub/backend/config"
	"skillhub/backend/middleware"
	"skillhub/backend/services/enrollment"
	"skillhub/backend/services/learning"
	"skillhub/backend/store"
	"skillhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ProgressController struct {
	Store    *store.Store
	Manager  *enrollment.Manager
	Learning *learning.Service
	Cfg      *config.Config
}

func NewProgressController(s *store.Store, manager *enrollment.Manager, ls *learning.Service, cfg *config.Config) *ProgressController {
	return &ProgressController{Store: s, Manager: manager, Learning: ls, Cfg: cfg}
}

type UpdateProgressRequest struct {
	Progress *int `json:"progress" validate:"required" example:"50"`
}

// UpdateProgress godoc
// @Summary Set progress on a content item
// @Tags progress
// @Accept json
// @Produce json
// @Param id path string true "Content ID"
// @Param input body UpdateProgressRequest true "One of 0, 25, 50, 75, 100"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /contents/{id}/progress [put]
func (pc *ProgressController) UpdateProgress(c *fiber.Ctx) error {
	contentID, err := pc.authorize(c)
	if err != nil {
		return utils.AppError(c, err)
	}
	var input UpdateProgressRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(&input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	if err := pc.Learning.SetProgress(c.UserContext(), middleware.UserID(c), contentID, *input.Progress); err != nil {
		return utils.AppError(c, err)
	}
	return progressResponse(c, contentID, *input.Progress)
}

// OpenContent godoc
// @Summary Mark a content item as started
// @Description Sets progress to 25 when the item has none yet
// @Tags progress
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /contents/{id}/open [post]
func (pc *ProgressController) OpenContent(c *fiber.Ctx) error {
	contentID, err := pc.authorize(c)
	if err != nil {
		return utils.AppError(c, err)
	}
	p, err := pc.Learning.OpenContent(c.UserContext(), middleware.UserID(c), contentID)
	if err != nil {
		return utils.AppError(c, err)
	}
	return progressResponse(c, contentID, p)
}

// ToggleComplete godoc
// @Summary Toggle completion of a content item
// @Tags progress
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /contents/{id}/toggle [post]
func (pc *ProgressController) ToggleComplete(c *fiber.Ctx) error {
	contentID, err := pc.authorize(c)
	if err != nil {
		return utils.AppError(c, err)
	}
	p, err := pc.Learning.ToggleComplete(c.UserContext(), middleware.UserID(c), contentID)
	if err != nil {
		return utils.AppError(c, err)
	}
	return progressResponse(c, contentID, p)
}

// authorize resolves the content id and checks the caller is enrolled in
// its skill.
func (pc *ProgressController) authorize(c *fiber.Ctx) (uuid.UUID, error) {
	contentID, err := parseUUID(c.Params("id"), "content id")
	if err != nil {
		return uuid.Nil, err
	}
	skill, err := pc.Store.SkillForContent(c.UserContext(), contentID)
	if err != nil {
		return uuid.Nil, err
	}
	if err := requireAccess(c.UserContext(), pc.Manager, middleware.UserID(c), skill); err != nil {
		return uuid.Nil, err
	}
	return contentID, nil
}

func progressResponse(c *fiber.Ctx, contentID uuid.UUID, progress int) error {
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"content_id": contentID,
		"progress":   progress,
	})
}
