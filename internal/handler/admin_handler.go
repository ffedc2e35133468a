package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gradlink-api/internal/dto"
	"github.com/noah-isme/gradlink-api/internal/service"
	"github.com/noah-isme/gradlink-api/internal/utils"
)

// AdminHandler exposes moderation and platform statistics.
type AdminHandler struct {
	analytics  service.AdminAnalyticsService
	moderation service.AdminModerationService
	logger     zerolog.Logger
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(analytics service.AdminAnalyticsService, moderation service.AdminModerationService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		analytics:  analytics,
		moderation: moderation,
		logger:     logger.With().Str("component", "admin_handler").Logger(),
	}
}

// Register binds admin routes. The group must already require an admin token.
func (h *AdminHandler) Register(router fiber.Router) {
	router.Get("/stats", h.stats)
	router.Get("/projects", h.listProjects)
	router.Patch("/projects/:id/status", h.updateProjectStatus)
	router.Delete("/projects/:id", h.deleteProject)
	router.Get("/projects/:id/media-audit", h.mediaAudit)
	router.Get("/users", h.listUsers)
	router.Patch("/users/:id/active", h.setUserActive)
}

func (h *AdminHandler) stats(c *fiber.Ctx) error {
	result, err := h.analytics.Stats(c.UserContext())
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "platform statistics", result)
}

func (h *AdminHandler) listProjects(c *fiber.Ctx) error {
	var query dto.AdminProjectListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.moderation.ListProjects(c.UserContext(), query)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.OK(c, result.Projects, "projects retrieved", result.Pagination)
}

func (h *AdminHandler) updateProjectStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid project id")
	}

	var payload dto.ProjectStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.moderation.UpdateProjectStatus(c.UserContext(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "project status updated", dto.ProjectEnvelope{Project: result})
}

func (h *AdminHandler) deleteProject(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid project id")
	}

	if err := h.moderation.DeleteProject(c.UserContext(), id); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "project deleted", nil)
}

func (h *AdminHandler) mediaAudit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid project id")
	}

	result, err := h.moderation.MediaAudit(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "media audit", result)
}

func (h *AdminHandler) listUsers(c *fiber.Ctx) error {
	var query dto.UserListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.moderation.ListUsers(c.UserContext(), query)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.OK(c, result.Users, "users retrieved", result.Pagination)
}

func (h *AdminHandler) setUserActive(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	var payload dto.UserActiveRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.moderation.SetUserActive(c.UserContext(), userIDFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "user updated", result)
}

func (h *AdminHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	case errors.Is(err, service.ErrProjectNotFound), errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSelfDeactivation):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("admin request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "request failed")
	}
}
