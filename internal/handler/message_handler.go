package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gradlink-api/internal/dto"
	"github.com/noah-isme/gradlink-api/internal/middleware"
	"github.com/noah-isme/gradlink-api/internal/service"
	"github.com/noah-isme/gradlink-api/internal/utils"
)

// MessageHandler wires direct messaging endpoints including the live relay upgrade.
type MessageHandler struct {
	service service.MessageService
	relay   service.MessageRelay
	logger  zerolog.Logger
}

// NewMessageHandler creates a message handler. relay may be nil, which disables /ws.
func NewMessageHandler(service service.MessageService, relay service.MessageRelay, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		service: service,
		relay:   relay,
		logger:  logger.With().Str("component", "message_handler").Logger(),
	}
}

// Register binds message routes. The group must already require a valid token.
func (h *MessageHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if h.relay == nil {
			return utils.SendError(c, fiber.StatusServiceUnavailable, "live relay unavailable")
		}
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
			c.Locals("request_ctx", ctx)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.handleConnection))

	router.Post("/", h.send)
	router.Get("/conversations", h.conversations)
	router.Get("/with/:userId", h.thread)
	router.Get("/unread-count", h.unreadCount)
	router.Patch("/:id/read", h.markRead)
	router.Delete("/:id", h.delete)
}

func (h *MessageHandler) handleConnection(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(uint)
	if userID == 0 {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "user id missing"))
		_ = conn.Close()
		return
	}

	role, _ := conn.Locals("user_role").(string)
	correlation, _ := conn.Locals("correlation_id").(string)
	baseCtx, _ := conn.Locals("request_ctx").(context.Context)

	opts := service.RelayConnectionOptions{
		UserID:        userID,
		Role:          role,
		CorrelationID: correlation,
		Context:       baseCtx,
	}

	h.logger.Info().Uint("user_id", userID).Msg("relay websocket connected")
	h.relay.ServeConnection(conn, opts)
	h.logger.Info().Uint("user_id", userID).Msg("relay websocket disconnected")
}

func (h *MessageHandler) send(c *fiber.Ctx) error {
	var payload dto.MessageSendRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Send(c.UserContext(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", result)
}

func (h *MessageHandler) conversations(c *fiber.Ctx) error {
	result, err := h.service.Conversations(c.UserContext(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "conversations retrieved", fiber.Map{"conversations": result})
}

func (h *MessageHandler) thread(c *fiber.Ctx) error {
	otherID, err := parseUintParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	result, err := h.service.Thread(c.UserContext(), userIDFromContext(c), otherID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "thread retrieved", fiber.Map{"messages": result})
}

func (h *MessageHandler) unreadCount(c *fiber.Ctx) error {
	result, err := h.service.UnreadCount(c.UserContext(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "unread count", result)
}

func (h *MessageHandler) markRead(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid message id")
	}

	result, err := h.service.MarkRead(c.UserContext(), userIDFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "message marked as read", result)
}

func (h *MessageHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid message id")
	}

	if err := h.service.Delete(c.UserContext(), userIDFromContext(c), id); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "message deleted", nil)
}

func (h *MessageHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	case errors.Is(err, service.ErrSelfMessage), errors.Is(err, service.ErrEmptyMessage):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, service.ErrRecipientNotFound),
		errors.Is(err, service.ErrProjectNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrMessageForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("message request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "request failed")
	}
}
