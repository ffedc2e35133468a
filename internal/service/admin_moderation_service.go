package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gradlink-api/internal/dto"
	"github.com/noah-isme/gradlink-api/internal/media"
	"github.com/noah-isme/gradlink-api/internal/models"
	"github.com/noah-isme/gradlink-api/internal/repository"
)

var (
	// ErrUserNotFound indicates the account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrSelfDeactivation indicates an admin tried to disable their own account.
	ErrSelfDeactivation = errors.New("admins cannot deactivate their own account")
)

// StatsInvalidator drops cached dashboard figures.
type StatsInvalidator interface {
	Invalidate(ctx context.Context)
}

// AdminModerationService exposes the admin project and account moderation use-cases.
type AdminModerationService interface {
	ListProjects(ctx context.Context, query dto.AdminProjectListQuery) (dto.AdminProjectListResponse, error)
	UpdateProjectStatus(ctx context.Context, id uint, req dto.ProjectStatusRequest) (dto.ProjectResponse, error)
	DeleteProject(ctx context.Context, id uint) error
	MediaAudit(ctx context.Context, id uint) (dto.MediaAuditResponse, error)
	ListUsers(ctx context.Context, query dto.UserListQuery) (dto.UserListResponse, error)
	SetUserActive(ctx context.Context, adminID, userID uint, req dto.UserActiveRequest) (dto.UserResponse, error)
}

type adminModerationService struct {
	projects  repository.ProjectRepository
	users     repository.UserRepository
	stats     StatsInvalidator
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewAdminModerationService constructs the moderation service. stats may be nil.
func NewAdminModerationService(projects repository.ProjectRepository, users repository.UserRepository, stats StatsInvalidator, validate *validator.Validate, logger zerolog.Logger) AdminModerationService {
	return &adminModerationService{
		projects:  projects,
		users:     users,
		stats:     stats,
		validator: validate,
		logger:    logger.With().Str("component", "admin_moderation_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gradlink-api/internal/service/admin_moderation"),
	}
}

func (s *adminModerationService) ListProjects(ctx context.Context, query dto.AdminProjectListQuery) (dto.AdminProjectListResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.AdminProjectListResponse{}, err
	}

	status := ""
	if query.Status != "" {
		status = models.NormalizeProjectStatus(query.Status)
	}

	records, total, err := s.projects.ListByStatus(ctx, status, query.Page, query.PageSize)
	if err != nil {
		return dto.AdminProjectListResponse{}, err
	}

	return dto.AdminProjectListResponse{
		Projects:   newProjectResponseSlice(records),
		Pagination: dto.NewPaginationMeta(query.Page, query.PageSize, total),
	}, nil
}

func (s *adminModerationService) UpdateProjectStatus(ctx context.Context, id uint, req dto.ProjectStatusRequest) (dto.ProjectResponse, error) {
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if err := s.validator.Struct(req); err != nil {
		return dto.ProjectResponse{}, err
	}

	status := models.NormalizeProjectStatus(req.Status)
	if err := s.projects.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectResponse{}, ErrProjectNotFound
		}
		return dto.ProjectResponse{}, err
	}
	s.invalidate(ctx)

	record, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return dto.ProjectResponse{}, err
	}

	s.logger.Info().Uint("project_id", id).Str("status", status).Msg("project status changed")
	return newProjectResponse(record), nil
}

func (s *adminModerationService) DeleteProject(ctx context.Context, id uint) error {
	if err := s.projects.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return err
	}
	s.invalidate(ctx)

	s.logger.Info().Uint("project_id", id).Msg("project removed by admin")
	return nil
}

// MediaAudit runs the strict normalizer over stored media to surface legacy bad data.
func (s *adminModerationService) MediaAudit(ctx context.Context, id uint) (dto.MediaAuditResponse, error) {
	ctx, span := s.tracer.Start(ctx, "admin.media_audit", trace.WithAttributes(attribute.Int("project.id", int(id))))
	defer span.End()

	record, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MediaAuditResponse{}, ErrProjectNotFound
		}
		return dto.MediaAuditResponse{}, err
	}

	set, auditErr := media.NormalizeSetStrict(record.ImagesJSON, record.VideosJSON, record.DocumentsJSON)
	rejections := media.ValidationErrors(auditErr)
	if rejections == nil {
		rejections = []*media.ValidationError{}
	}
	span.SetAttributes(attribute.Int("media.rejected_kinds", len(rejections)))

	return dto.MediaAuditResponse{
		ProjectID:  id,
		Clean:      len(rejections) == 0,
		Accepted:   set,
		Rejections: rejections,
	}, nil
}

func (s *adminModerationService) ListUsers(ctx context.Context, query dto.UserListQuery) (dto.UserListResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.UserListResponse{}, err
	}

	users, total, err := s.users.List(ctx, repository.UserFilter{
		Role:     query.Role,
		Search:   strings.TrimSpace(query.Search),
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		return dto.UserListResponse{}, err
	}

	return dto.UserListResponse{
		Users:      dto.NewUserResponseSlice(users),
		Pagination: dto.NewPaginationMeta(query.Page, query.PageSize, total),
	}, nil
}

func (s *adminModerationService) SetUserActive(ctx context.Context, adminID, userID uint, req dto.UserActiveRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}
	if adminID == userID && !*req.Active {
		return dto.UserResponse{}, ErrSelfDeactivation
	}

	if err := s.users.SetActive(ctx, userID, *req.Active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("admin_id", adminID).Uint("user_id", userID).Bool("active", user.IsActive).Msg("account activity changed")
	return dto.NewUserResponse(user), nil
}

func (s *adminModerationService) invalidate(ctx context.Context) {
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
}
