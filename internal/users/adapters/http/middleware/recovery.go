package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"devplatform/pkg/logger"
)

// NewRecoveryMiddleware превращает панику обработчика в ответ 500.
func NewRecoveryMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqCtx := RequestContext(c)

		defer func() {
			if r := recover(); r != nil {
				log := logger.Log(reqCtx)
				log.Error(reqCtx, "Server panic",
					zap.String("error", fmt.Sprintf("%v", r)),
					zap.String("stack", string(debug.Stack())),
				)

				if err := c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Internal Server Error",
				}); err != nil {
					log.Error(reqCtx, "Failed to send error response after panic", zap.Error(err))
				}
			}
		}()

		return c.Next()
	}
}
