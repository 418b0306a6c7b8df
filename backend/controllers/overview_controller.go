package controllers

import (
	"skillhub/backend/config"
	"skillhub/backend/middleware"
	"skillhub/backend/models"
	"skillhub/backend/services/learning"
	"skillhub/backend/store"
	"skillhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// OverviewController serves the dashboard's "my skills" list.
type OverviewController struct {
	Store    *store.Store
	Learning *learning.Service
	Cfg      *config.Config
}

func NewOverviewController(s *store.Store, ls *learning.Service, cfg *config.Config) *OverviewController {
	return &OverviewController{Store: s, Learning: ls, Cfg: cfg}
}

type enrolledSkill struct {
	Skill   models.Skill           `json:"skill"`
	Stats   models.CompletionStats `json:"stats"`
	Percent int                    `json:"percent"`
}

// GetOverview godoc
// @Summary Enrolled skills with completion
// @Tags overview
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /overview [get]
func (oc *OverviewController) GetOverview(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := middleware.UserID(c)

	skills, err := oc.Store.ListEnrolledSkills(ctx, userID)
	if err != nil {
		return utils.AppError(c, err)
	}

	result := make([]enrolledSkill, 0, len(skills))
	for _, skill := range skills {
		view, err := oc.Learning.ContentView(ctx, userID, skill.ID)
		if err != nil {
			return utils.AppError(c, err)
		}
		result = append(result, enrolledSkill{
			Skill:   skill,
			Stats:   view.Stats,
			Percent: learning.Percent(view.Stats.Completed, view.Stats.Total),
		})
	}
	return utils.Success(c, fiber.StatusOK, result)
}
