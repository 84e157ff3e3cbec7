// Package middleware содержит промежуточное ПО для HTTP обработчиков.
package middleware

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"devplatform/pkg/logger"
)

// HeaderRequestID - заголовок с идентификатором запроса.
const HeaderRequestID = "X-Request-ID"

// requestContextKey - ключ Locals, под которым хранится контекст запроса.
const requestContextKey = "requestContext"

// maxRequestIDLength ограничивает длину идентификатора, присланного клиентом.
const maxRequestIDLength = 128

// NewRequestIDMiddleware берет X-Request-ID из запроса или генерирует новый,
// кладет его в контекст запроса и возвращает клиенту.
func NewRequestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		requestID := c.Get(HeaderRequestID)
		if len(requestID) > maxRequestIDLength {
			requestID = ""
		}

		reqCtx := logger.NewRequestIDContext(c.Context(), requestID)
		requestID, _ = logger.GetRequestID(reqCtx)

		c.Locals(requestContextKey, reqCtx)
		c.Set(HeaderRequestID, requestID)
		return c.Next()
	}
}

// RequestContext возвращает контекст запроса с request_id.
// Без NewRequestIDMiddleware возвращается контекст fiber.
func RequestContext(c fiber.Ctx) context.Context {
	if reqCtx, ok := c.Locals(requestContextKey).(context.Context); ok {
		return reqCtx
	}
	return c.Context()
}
