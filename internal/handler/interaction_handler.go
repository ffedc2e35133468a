package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gradlink-api/internal/dto"
	"github.com/noah-isme/gradlink-api/internal/middleware"
	"github.com/noah-isme/gradlink-api/internal/service"
	"github.com/noah-isme/gradlink-api/internal/utils"
)

// InteractionHandler exposes investor engagement endpoints.
type InteractionHandler struct {
	service service.InteractionService
	logger  zerolog.Logger
}

// NewInteractionHandler constructs an interaction handler.
func NewInteractionHandler(service service.InteractionService, logger zerolog.Logger) *InteractionHandler {
	return &InteractionHandler{
		service: service,
		logger:  logger.With().Str("component", "interaction_handler").Logger(),
	}
}

// Register binds interaction routes. The group must already require a valid token.
func (h *InteractionHandler) Register(router fiber.Router) {
	investor := middleware.AuthOptions{Role: middleware.AuthRoleInvestor}
	graduate := middleware.AuthOptions{Role: middleware.AuthRoleGraduate}

	router.Post("/", middleware.WithAuth(h.record, investor))
	router.Get("/", middleware.WithAuth(h.list, investor))
	router.Get("/conversations", middleware.WithAuth(h.investorConversations, investor))
	router.Get("/received", middleware.WithAuth(h.graduateConversations, graduate))
	router.Delete("/:id", middleware.WithAuth(h.remove, investor))
}

func (h *InteractionHandler) record(c *fiber.Ctx) error {
	var payload dto.InteractionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Record(c.UserContext(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	if !result.Created {
		return utils.SendSuccess(c, "interaction already recorded", result)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "interaction recorded", result)
}

func (h *InteractionHandler) list(c *fiber.Ctx) error {
	kind := strings.ToLower(strings.TrimSpace(c.Query("type")))
	result, err := h.service.List(c.UserContext(), userIDFromContext(c), kind)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "interactions retrieved", fiber.Map{"interactions": result})
}

func (h *InteractionHandler) investorConversations(c *fiber.Ctx) error {
	result, err := h.service.InvestorConversations(c.UserContext(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "conversations retrieved", fiber.Map{"conversations": result})
}

func (h *InteractionHandler) graduateConversations(c *fiber.Ctx) error {
	result, err := h.service.GraduateConversations(c.UserContext(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "conversations retrieved", fiber.Map{"conversations": result})
}

func (h *InteractionHandler) remove(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid interaction id")
	}

	if err := h.service.Remove(c.UserContext(), userIDFromContext(c), id); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "interaction removed", nil)
}

func (h *InteractionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	case errors.Is(err, service.ErrInteractionNotFound), errors.Is(err, service.ErrProjectUnavailable):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInteractionForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("interaction request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "request failed")
	}
}
