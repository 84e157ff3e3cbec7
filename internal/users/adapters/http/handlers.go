package http

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"devplatform/internal/users/adapters/http/middleware"
	"devplatform/internal/users/app/dto"
	"devplatform/internal/users/ports/api"
	"devplatform/pkg/logger"
)

// Сообщения логгера.
const (
	LogHandlerCreateUser = "handling create user request"
	LogHandlerGetUser    = "handling get user request"
	LogHandlerListUsers  = "handling list users request"
	LogHandlerUpdateUser = "handling update user request"
	LogHandlerDeleteUser = "handling delete user request"
	LogHandlerStats      = "handling user statistics request"
	LogHandlerRules      = "handling validation rules request"
	LogHealthCheckFailed = "health check failed"
)

// HealthChecker проверяет доступность хранилища.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthResponse - ответ /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Handler обрабатывает HTTP-запросы к пользователям.
type Handler struct {
	users  api.UserUseCase
	health HealthChecker
}

// NewHandler создает обработчик. health может быть nil, если хранилище
// находится в памяти процесса.
func NewHandler(users api.UserUseCase, health HealthChecker) *Handler {
	return &Handler{users: users, health: health}
}

func (h *Handler) log(c fiber.Ctx, handler string) (context.Context, *logger.Logger) {
	ctx := middleware.RequestContext(c)
	return ctx, logger.Log(ctx).With(zap.String("handler", handler))
}

// CreateUser обрабатывает POST /api/v1/users.
func (h *Handler) CreateUser(c fiber.Ctx) error {
	ctx, log := h.log(c, "Handler.CreateUser")
	log.Debug(ctx, LogHandlerCreateUser)

	var req dto.CreateUserRequest
	if err := c.Bind().Body(&req); err != nil {
		log.Warn(ctx, ErrMsgInvalidRequestBody, zap.Error(err))
		return writeJSON(c, fiber.StatusBadRequest, ErrorResponse{Error: ErrMsgInvalidRequestBody})
	}

	user, err := h.users.CreateUser(ctx, req)
	if err != nil {
		return writeError(c, err)
	}
	return writeJSON(c, fiber.StatusCreated, user)
}

// GetUser обрабатывает GET /api/v1/users/:id.
func (h *Handler) GetUser(c fiber.Ctx) error {
	ctx, log := h.log(c, "Handler.GetUser")
	log.Debug(ctx, LogHandlerGetUser)

	id, ok := parseID(c)
	if !ok {
		return writeJSON(c, fiber.StatusBadRequest, ErrorResponse{Error: ErrMsgInvalidUserID})
	}

	user, err := h.users.GetUser(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return writeJSON(c, fiber.StatusOK, user)
}

// ListUsers обрабатывает GET /api/v1/users[?domain=].
func (h *Handler) ListUsers(c fiber.Ctx) error {
	ctx, log := h.log(c, "Handler.ListUsers")
	log.Debug(ctx, LogHandlerListUsers)

	users, err := h.users.ListUsers(ctx, dto.ListUsersRequest{Domain: c.Query("domain")})
	if err != nil {
		return writeError(c, err)
	}
	return writeJSON(c, fiber.StatusOK, users)
}

// UpdateUser обрабатывает PUT и PATCH /api/v1/users/:id.
func (h *Handler) UpdateUser(c fiber.Ctx) error {
	ctx, log := h.log(c, "Handler.UpdateUser")
	log.Debug(ctx, LogHandlerUpdateUser)

	id, ok := parseID(c)
	if !ok {
		return writeJSON(c, fiber.StatusBadRequest, ErrorResponse{Error: ErrMsgInvalidUserID})
	}

	var req dto.UpdateUserRequest
	if err := c.Bind().Body(&req); err != nil {
		log.Warn(ctx, ErrMsgInvalidRequestBody, zap.Error(err))
		return writeJSON(c, fiber.StatusBadRequest, ErrorResponse{Error: ErrMsgInvalidRequestBody})
	}

	user, err := h.users.UpdateUser(ctx, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return writeJSON(c, fiber.StatusOK, user)
}

// DeleteUser обрабатывает DELETE /api/v1/users/:id.
func (h *Handler) DeleteUser(c fiber.Ctx) error {
	ctx, log := h.log(c, "Handler.DeleteUser")
	log.Debug(ctx, LogHandlerDeleteUser)

	id, ok := parseID(c)
	if !ok {
		return writeJSON(c, fiber.StatusBadRequest, ErrorResponse{Error: ErrMsgInvalidUserID})
	}

	if err := h.users.DeleteUser(ctx, id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Statistics обрабатывает GET /api/v1/users/stats.
func (h *Handler) Statistics(c fiber.Ctx) error {
	ctx, log := h.log(c, "Handler.Statistics")
	log.Debug(ctx, LogHandlerStats)

	stats, err := h.users.UserStatistics(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return writeJSON(c, fiber.StatusOK, stats)
}

// Rules обрабатывает GET /api/v1/users/rules.
func (h *Handler) Rules(c fiber.Ctx) error {
	ctx, log := h.log(c, "Handler.Rules")
	log.Debug(ctx, LogHandlerRules)

	rules, err := h.users.ValidationRules(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return writeJSON(c, fiber.StatusOK, rules)
}

// Health обрабатывает GET /health.
func (h *Handler) Health(c fiber.Ctx) error {
	ctx, log := h.log(c, "Handler.Health")

	if h.health == nil {
		return writeJSON(c, fiber.StatusOK, HealthResponse{Status: "ok", Database: "memory"})
	}
	if err := h.health.Ping(ctx); err != nil {
		log.Warn(ctx, LogHealthCheckFailed, zap.Error(err))
		return writeJSON(c, fiber.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Database: "down"})
	}
	return writeJSON(c, fiber.StatusOK, HealthResponse{Status: "ok", Database: "up"})
}

func parseID(c fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
