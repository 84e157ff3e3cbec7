package http

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"

	"devplatform/internal/users/domain/entities"
	"devplatform/internal/users/domain/services"
)

// Тексты ошибок в ответах.
const (
	ErrMsgInvalidRequestBody = "invalid request body"
	ErrMsgInvalidUserID      = "invalid user id"
	ErrMsgValidationFailed   = "validation failed"
	ErrMsgUserExists         = "user already exists"
	ErrMsgRouteNotFound      = "route not found"
	ErrMsgInternal           = "internal server error"
)

// ErrorResponse - тело ответа с ошибкой.
type ErrorResponse struct {
	Error            string            `json:"error"`
	ValidationErrors map[string]string `json:"validation_errors,omitempty"`
}

// statusFor сопоставляет ошибку сценария с HTTP-статусом и телом ответа.
func statusFor(err error) (int, ErrorResponse) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		if validationErr.IsConflict() {
			return fiber.StatusConflict, ErrorResponse{
				Error:            ErrMsgUserExists,
				ValidationErrors: validationErr.Errors.Map(),
			}
		}
		return fiber.StatusUnprocessableEntity, ErrorResponse{
			Error:            ErrMsgValidationFailed,
			ValidationErrors: validationErr.Errors.Map(),
		}
	case errors.Is(err, entities.ErrUserAlreadyExists):
		return fiber.StatusConflict, ErrorResponse{Error: err.Error()}
	case errors.Is(err, entities.ErrUserNotFound):
		return fiber.StatusNotFound, ErrorResponse{Error: err.Error()}
	default:
		return fiber.StatusInternalServerError, ErrorResponse{Error: ErrMsgInternal}
	}
}

func writeError(c fiber.Ctx, err error) error {
	status, body := statusFor(err)
	return writeJSON(c, status, body)
}

func writeJSON(c fiber.Ctx, status int, body any) error {
	if err := c.Status(status).JSON(body); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}
