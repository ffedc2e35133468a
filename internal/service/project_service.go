package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gradlink-api/internal/dto"
	"github.com/noah-isme/gradlink-api/internal/media"
	"github.com/noah-isme/gradlink-api/internal/models"
	"github.com/noah-isme/gradlink-api/internal/observability"
	"github.com/noah-isme/gradlink-api/internal/repository"
)

var (
	// ErrProjectNotFound indicates the project does not exist or is not visible to the caller.
	ErrProjectNotFound = errors.New("project not found")
	// ErrProjectForbidden indicates the caller does not own the project.
	ErrProjectForbidden = errors.New("not allowed to modify this project")
	// ErrInvalidMedia wraps strict media validation failures.
	ErrInvalidMedia = errors.New("invalid media links")
)

// ProjectActor identifies who is acting on a project. A zero ID means an anonymous visitor.
type ProjectActor struct {
	ID   uint
	Role string
}

func (a ProjectActor) owns(project models.Project) bool {
	return a.ID != 0 && project.GraduateID == a.ID
}

func (a ProjectActor) isAdmin() bool {
	return a.Role == models.RoleAdmin
}

// ProjectWriteOptions tunes how incoming media is validated.
type ProjectWriteOptions struct {
	StrictMedia bool
}

// ProjectService exposes the showcase use-cases.
type ProjectService interface {
	List(ctx context.Context, query dto.ProjectListQuery) (dto.ProjectListResponse, error)
	Get(ctx context.Context, id uint, actor ProjectActor) (dto.ProjectResponse, error)
	ListMine(ctx context.Context, graduateID uint) ([]dto.ProjectResponse, error)
	Create(ctx context.Context, graduateID uint, req dto.ProjectCreateRequest, opts ProjectWriteOptions) (dto.ProjectResponse, error)
	Update(ctx context.Context, id uint, actor ProjectActor, req dto.ProjectUpdateRequest, opts ProjectWriteOptions) (dto.ProjectResponse, error)
	Delete(ctx context.Context, id uint, actor ProjectActor) error
}

type projectService struct {
	repo      repository.ProjectRepository
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	plain     *bluemonday.Policy
	rich      *bluemonday.Policy
	now       func() time.Time
}

// NewProjectService constructs a project service.
func NewProjectService(repo repository.ProjectRepository, validate *validator.Validate, logger zerolog.Logger) ProjectService {
	return &projectService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "project_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gradlink-api/internal/service/project"),
		plain:     bluemonday.StrictPolicy(),
		rich:      bluemonday.UGCPolicy(),
		now:       time.Now,
	}
}

func (s *projectService) List(ctx context.Context, query dto.ProjectListQuery) (dto.ProjectListResponse, error) {
	ctx, span := s.tracer.Start(ctx, "project.list")
	defer span.End()

	if err := s.validator.Struct(query); err != nil {
		return dto.ProjectListResponse{}, err
	}

	filter := repository.ProjectFilter{
		Category: strings.TrimSpace(query.Category),
		Search:   strings.TrimSpace(query.Search),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if query.GraduateID != 0 {
		graduateID := query.GraduateID
		filter.GraduateID = &graduateID
	}

	records, total, err := s.repo.ListPublished(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_failed")
		return dto.ProjectListResponse{}, err
	}

	span.SetAttributes(attribute.Int64("project.total", total), attribute.Int("project.page_len", len(records)))
	return dto.ProjectListResponse{Projects: newProjectResponseSlice(records), Total: total}, nil
}

func (s *projectService) Get(ctx context.Context, id uint, actor ProjectActor) (dto.ProjectResponse, error) {
	ctx, span := s.tracer.Start(ctx, "project.get", trace.WithAttributes(attribute.Int("project.id", int(id))))
	defer span.End()

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectResponse{}, ErrProjectNotFound
		}
		span.RecordError(err)
		return dto.ProjectResponse{}, err
	}

	if record.Status != models.ProjectStatusPublished && !actor.owns(record.Project) && !actor.isAdmin() {
		return dto.ProjectResponse{}, ErrProjectNotFound
	}

	views, err := s.repo.IncrementViews(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectResponse{}, ErrProjectNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "increment_views_failed")
		return dto.ProjectResponse{}, err
	}
	record.Views = views
	observability.ProjectViews().Inc()

	return newProjectResponse(record), nil
}

func (s *projectService) ListMine(ctx context.Context, graduateID uint) ([]dto.ProjectResponse, error) {
	records, err := s.repo.ListByGraduate(ctx, graduateID)
	if err != nil {
		return nil, err
	}
	return newProjectResponseSlice(records), nil
}

func (s *projectService) Create(ctx context.Context, graduateID uint, req dto.ProjectCreateRequest, opts ProjectWriteOptions) (dto.ProjectResponse, error) {
	ctx, span := s.tracer.Start(ctx, "project.create")
	defer span.End()

	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if err := s.validator.Struct(req); err != nil {
		return dto.ProjectResponse{}, err
	}

	set, err := s.normalizeMedia(req.ImageURLs, req.VideoURLs, req.DocumentURLs, opts)
	if err != nil {
		span.SetStatus(codes.Error, "invalid_media")
		return dto.ProjectResponse{}, err
	}

	status := req.Status
	if status == "" {
		status = models.ProjectStatusPending
	}

	project := models.Project{
		Title:         s.plain.Sanitize(strings.TrimSpace(req.Title)),
		Description:   s.rich.Sanitize(strings.TrimSpace(req.Description)),
		Category:      strings.TrimSpace(req.Category),
		ImpactArea:    strings.TrimSpace(req.ImpactArea),
		FundingGoal:   req.FundingGoal,
		GraduateID:    graduateID,
		Status:        status,
		ImagesJSON:    media.Encode(set.Images),
		VideosJSON:    media.Encode(set.Videos),
		DocumentsJSON: media.Encode(set.Documents),
	}
	if err := s.repo.Create(ctx, &project); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create_failed")
		return dto.ProjectResponse{}, err
	}

	s.logger.Info().Uint("project_id", project.ID).Uint("graduate_id", graduateID).Str("status", status).Msg("project created")
	return s.reload(ctx, project.ID)
}

func (s *projectService) Update(ctx context.Context, id uint, actor ProjectActor, req dto.ProjectUpdateRequest, opts ProjectWriteOptions) (dto.ProjectResponse, error) {
	ctx, span := s.tracer.Start(ctx, "project.update", trace.WithAttributes(attribute.Int("project.id", int(id))))
	defer span.End()

	if req.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*req.Status))
		req.Status = &status
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.ProjectResponse{}, err
	}

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectResponse{}, ErrProjectNotFound
		}
		return dto.ProjectResponse{}, err
	}
	if !actor.owns(record.Project) {
		return dto.ProjectResponse{}, ErrProjectForbidden
	}

	project := record.Project
	if req.Title != nil {
		project.Title = s.plain.Sanitize(strings.TrimSpace(*req.Title))
	}
	if req.Description != nil {
		project.Description = s.rich.Sanitize(strings.TrimSpace(*req.Description))
	}
	if req.Category != nil {
		project.Category = strings.TrimSpace(*req.Category)
	}
	if req.ImpactArea != nil {
		project.ImpactArea = strings.TrimSpace(*req.ImpactArea)
	}
	if req.FundingGoal != nil {
		project.FundingGoal = req.FundingGoal
	}
	if req.Status != nil {
		project.Status = *req.Status
	}

	if err := s.applyMediaUpdate(&project, req, opts); err != nil {
		span.SetStatus(codes.Error, "invalid_media")
		return dto.ProjectResponse{}, err
	}

	if err := s.repo.Update(ctx, &project); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update_failed")
		return dto.ProjectResponse{}, err
	}

	s.logger.Info().Uint("project_id", id).Uint("graduate_id", actor.ID).Msg("project updated")
	return s.reload(ctx, id)
}

func (s *projectService) Delete(ctx context.Context, id uint, actor ProjectActor) error {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return err
	}
	if !actor.owns(record.Project) && !actor.isAdmin() {
		return ErrProjectForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return err
	}

	s.logger.Info().Uint("project_id", id).Uint("actor_id", actor.ID).Str("actor_role", actor.Role).Msg("project deleted")
	return nil
}

// applyMediaUpdate only replaces the lists present in the request.
func (s *projectService) applyMediaUpdate(project *models.Project, req dto.ProjectUpdateRequest, opts ProjectWriteOptions) error {
	if len(req.ImageURLs) == 0 && len(req.VideoURLs) == 0 && len(req.DocumentURLs) == 0 {
		return nil
	}

	set, err := s.normalizeMedia(req.ImageURLs, req.VideoURLs, req.DocumentURLs, opts)
	if err != nil {
		return err
	}

	if len(req.ImageURLs) > 0 {
		project.ImagesJSON = media.Encode(set.Images)
	}
	if len(req.VideoURLs) > 0 {
		project.VideosJSON = media.Encode(set.Videos)
	}
	if len(req.DocumentURLs) > 0 {
		project.DocumentsJSON = media.Encode(set.Documents)
	}
	return nil
}

func (s *projectService) normalizeMedia(images, videos, documents json.RawMessage, opts ProjectWriteOptions) (media.Set, error) {
	set, err := media.NormalizeSetStrict(images, videos, documents)
	if err == nil {
		return set, nil
	}

	for _, validationErr := range media.ValidationErrors(err) {
		for _, rejection := range validationErr.Rejections {
			observability.MediaRejected().WithLabelValues(string(validationErr.Kind), rejection.Reason).Inc()
		}
	}

	if opts.StrictMedia {
		return media.Set{}, fmt.Errorf("%w: %w", ErrInvalidMedia, err)
	}

	s.logger.Debug().Err(err).Msg("dropped invalid media entries")
	return set, nil
}

func (s *projectService) reload(ctx context.Context, id uint) (dto.ProjectResponse, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.ProjectResponse{}, err
	}
	return newProjectResponse(record), nil
}

// newProjectResponse re-normalizes the stored media columns so legacy rows never leak invalid links.
func newProjectResponse(record repository.ProjectRecord) dto.ProjectResponse {
	set := media.NormalizeSet(record.ImagesJSON, record.VideosJSON, record.DocumentsJSON)

	return dto.ProjectResponse{
		ID:             record.ID,
		Title:          record.Title,
		Description:    record.Description,
		Category:       record.Category,
		ImpactArea:     record.ImpactArea,
		Images:         set.Images,
		Videos:         set.Videos,
		Documents:      set.Documents,
		GraduateID:     record.GraduateID,
		GraduateName:   record.GraduateName,
		Status:         record.Status,
		FundingGoal:    record.FundingGoal,
		CurrentFunding: record.CurrentFunding,
		Views:          record.Views,
		Likes:          record.Likes,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}

func newProjectResponseSlice(records []repository.ProjectRecord) []dto.ProjectResponse {
	out := make([]dto.ProjectResponse, 0, len(records))
	for _, record := range records {
		out = append(out, newProjectResponse(record))
	}
	return out
}
