package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gradlink-api/internal/dto"
	"github.com/noah-isme/gradlink-api/internal/media"
	"github.com/noah-isme/gradlink-api/internal/middleware"
	"github.com/noah-isme/gradlink-api/internal/service"
	"github.com/noah-isme/gradlink-api/internal/utils"
)

// ProjectHandler exposes the project showcase.
type ProjectHandler struct {
	service service.ProjectService
	logger  zerolog.Logger
}

// NewProjectHandler constructs a project handler.
func NewProjectHandler(service service.ProjectService, logger zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{
		service: service,
		logger:  logger.With().Str("component", "project_handler").Logger(),
	}
}

// Register binds project routes. Listing is public, single fetches attach the caller when a
// token is present, and writes require a token.
func (h *ProjectHandler) Register(router fiber.Router, auth RouteAuth) {
	graduate := middleware.AuthOptions{Role: middleware.AuthRoleGraduate}
	member := middleware.AuthOptions{RequireUser: true}

	router.Get("/", h.list)
	router.Get("/mine", auth.required(), middleware.WithAuth(h.mine, graduate))
	router.Get("/:id", auth.optional(), h.get)
	router.Post("/", auth.required(), middleware.WithAuth(h.create, graduate))
	router.Patch("/:id", auth.required(), middleware.WithAuth(h.update, graduate))
	router.Delete("/:id", auth.required(), middleware.WithAuth(h.delete, member))
}

func (h *ProjectHandler) list(c *fiber.Ctx) error {
	var query dto.ProjectListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.service.List(c.UserContext(), query)
	if err != nil {
		return h.handleError(c, err)
	}

	page, pageSize := query.Page, query.PageSize
	return utils.OK(c, result, "projects retrieved", dto.NewPaginationMeta(page, pageSize, result.Total))
}

func (h *ProjectHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid project id")
	}

	result, err := h.service.Get(c.UserContext(), id, projectActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "project retrieved", dto.ProjectEnvelope{Project: result})
}

func (h *ProjectHandler) mine(c *fiber.Ctx) error {
	result, err := h.service.ListMine(c.UserContext(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "projects retrieved", fiber.Map{"projects": result})
}

func (h *ProjectHandler) create(c *fiber.Ctx) error {
	var payload dto.ProjectCreateRequest
	if err := parseProjectBody(c, &payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Create(c.UserContext(), userIDFromContext(c), payload, writeOptions(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "project created", dto.ProjectEnvelope{Project: result})
}

func (h *ProjectHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid project id")
	}

	var payload dto.ProjectUpdateRequest
	if err := parseProjectBody(c, &payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Update(c.UserContext(), id, projectActorFromContext(c), payload, writeOptions(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "project updated", dto.ProjectEnvelope{Project: result})
}

func (h *ProjectHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid project id")
	}

	if err := h.service.Delete(c.UserContext(), id, projectActorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "project deleted", nil)
}

func (h *ProjectHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	case errors.Is(err, service.ErrInvalidMedia):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, service.ErrInvalidMedia.Error(), media.ValidationErrors(err))
	case errors.Is(err, service.ErrProjectNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrProjectForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("project request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "request failed")
	}
}

func writeOptions(c *fiber.Ctx) service.ProjectWriteOptions {
	return service.ProjectWriteOptions{StrictMedia: parseQueryBool(c, "strict")}
}

// parseProjectBody accepts JSON as well as multipart forms. Form fields are re-encoded as JSON so
// media lists may arrive as repeated fields or as one JSON-encoded string.
func parseProjectBody(c *fiber.Ctx, target interface{}) error {
	if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		return c.BodyParser(target)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return err
	}
	return decodeProjectForm(form, target)
}

func decodeProjectForm(form *multipart.Form, target interface{}) error {
	payload := make(map[string]interface{}, len(form.Value))
	for key, values := range form.Value {
		if len(values) == 0 {
			continue
		}
		if key == "fundingGoal" {
			raw := strings.TrimSpace(values[0])
			if raw == "" {
				continue
			}
			goal, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return err
			}
			payload[key] = goal
			continue
		}
		// A single value is passed through as text for the normalizer to decode; only
		// repeated fields become lists.
		if len(values) == 1 {
			payload[key] = values[0]
			continue
		}
		payload[key] = values
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
