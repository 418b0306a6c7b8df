package routes

import (
	"skillhub/backend/config"
	"skillhub/backend/controllers"
	"skillhub/backend/functions"
	"skillhub/backend/middleware"
	"skillhub/backend/services/enrollment"
	"skillhub/backend/services/learning"
	"skillhub/backend/store"

	"github.com/gofiber/fiber/v2"
)

// Services is what the route handlers are built from.
type Services struct {
	Store     *store.Store
	Manager   *enrollment.Manager
	Learning  *learning.Service
	Functions *functions.Handler
}

func SetupRoutes(app *fiber.App, svc *Services, cfg *config.Config) {
	// Gateway functions
	if svc.Functions != nil {
		svc.Functions.Register(app.Group("/functions/v1"))
	}

	// Auth routes
	authMiddleware := middleware.AuthMiddleware(cfg)
	authController := controllers.NewAuthController(svc.Store, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)
	app.Get("/api/auth/session", authMiddleware, authController.Session)

	// User routes
	userController := controllers.NewUserController(svc.Store, cfg)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)
	app.Post("/api/user/form", authMiddleware, userController.SubmitForm)

	// Overview routes
	overviewController := controllers.NewOverviewController(svc.Store, svc.Learning, cfg)
	app.Get("/api/overview", authMiddleware, overviewController.GetOverview)

	// Skills routes
	skillsController := controllers.NewSkillsController(svc.Store, svc.Manager, svc.Learning, cfg)
	purchasesController := controllers.NewPurchasesController(svc.Store, svc.Manager, cfg)
	app.Get("/api/skills", skillsController.ListSkills)
	skills := app.Group("/api/skills", authMiddleware)
	skills.Get("/:slug", skillsController.GetSkill)
	skills.Post("/:slug/enroll", skillsController.Enroll)
	skills.Get("/:slug/content", skillsController.GetContent)
	skills.Get("/:slug/purchases", purchasesController.ListSkillPurchases)

	// Purchase routes
	purchases := app.Group("/api/purchases", authMiddleware)
	purchases.Get("/:id", purchasesController.GetPurchase)
	purchases.Post("/:id/complete", purchasesController.CompletePayment)
	purchases.Post("/:id/dismiss", purchasesController.DismissPayment)
	purchases.Post("/:id/fail", purchasesController.FailPayment)

	// Progress routes
	progressController := controllers.NewProgressController(svc.Store, svc.Manager, svc.Learning, cfg)
	contents := app.Group("/api/contents", authMiddleware)
	contents.Put("/:id/progress", progressController.UpdateProgress)
	contents.Post("/:id/open", progressController.OpenContent)
	contents.Post("/:id/toggle", progressController.ToggleComplete)
}
