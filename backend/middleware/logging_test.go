package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"skillhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingMiddlewareUsesWrappedFiberStatus(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := &utils.Logger{SugaredLogger: zap.New(core).Sugar()}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(fiber.StatusTeapot)
		},
	})
	app.Use(LoggingMiddleware(logger))
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fmt.Errorf("lookup: %w", fiber.ErrNotFound)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, int64(http.StatusNotFound), entries[0].ContextMap()["status"])
	assert.Equal(t, "/missing", entries[0].ContextMap()["path"])
}
