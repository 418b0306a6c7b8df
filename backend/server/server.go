// Package server assembles the HTTP application from configuration: record
// store, gateway client, payment functions, enrollment manager and routes.
package server

import (
	"errors"
	"strings"

	"skillhub/backend/config"
	"skillhub/backend/functions"
	"skillhub/backend/middleware"
	"skillhub/backend/routes"
	"skillhub/backend/services/enrollment"
	"skillhub/backend/services/functionsclient"
	"skillhub/backend/services/learning"
	"skillhub/backend/services/payments"
	"skillhub/backend/services/razorpay"
	"skillhub/backend/store"
	"skillhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

type Server struct {
	App     *fiber.App
	Store   *store.Store
	Manager *enrollment.Manager
	Log     *utils.Logger
}

// New wires every component. With cfg.FunctionsURL set the manager calls the
// remote functions; otherwise it calls them in-process.
func New(cfg *config.Config, db *gorm.DB, logger *utils.Logger) *Server {
	st := store.New(db, logger)

	gateway := razorpay.NewClient(razorpay.Options{
		BaseURL:   cfg.RazorpayBaseURL,
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		Timeout:   cfg.RemoteTimeout,
	})
	orderService := payments.NewOrderService(gateway, logger)
	verifier := payments.NewVerificationService(gateway, st, logger)

	var (
		orders   enrollment.OrderCreator    = orderService
		verifies enrollment.PaymentVerifier = verifier
	)
	if cfg.FunctionsURL != "" {
		remote := functionsclient.New(functionsclient.Options{
			BaseURL: cfg.FunctionsURL,
			APIKey:  cfg.FunctionsAPIKey,
			Timeout: cfg.RemoteTimeout,
		})
		orders, verifies = remote, remote
		logger.Info("using remote payment functions", "url", cfg.FunctionsURL)
	}

	manager := enrollment.NewManager(st, orders, verifies, enrollment.Options{
		Currency: cfg.Currency,
		Timeout:  cfg.RemoteTimeout,
	}, logger)

	app := fiber.New(fiber.Config{
		AppName:      "skillhub",
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		// The functions answer their own preflight.
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/functions/")
		},
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	routes.SetupRoutes(app, &routes.Services{
		Store:     st,
		Manager:   manager,
		Learning:  learning.NewService(st, logger),
		Functions: functions.NewHandler(orderService, verifier, cfg.FunctionsAPIKey, cfg.RemoteTimeout, logger),
	}, cfg)

	return &Server{App: app, Store: st, Manager: manager, Log: logger}
}

func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	return utils.Error(c, status, err)
}
