package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gradlink-api/internal/conversation"
	"github.com/noah-isme/gradlink-api/internal/dto"
	"github.com/noah-isme/gradlink-api/internal/models"
	"github.com/noah-isme/gradlink-api/internal/repository"
)

var (
	// ErrInteractionNotFound indicates the interaction does not exist.
	ErrInteractionNotFound = errors.New("interaction not found")
	// ErrInteractionForbidden indicates the interaction belongs to another investor.
	ErrInteractionForbidden = errors.New("not allowed to modify this interaction")
	// ErrProjectUnavailable indicates the target project is missing or not published.
	ErrProjectUnavailable = errors.New("project is not available")
)

// InteractionService records investor engagement and derives conversation views from it.
type InteractionService interface {
	Record(ctx context.Context, investorID uint, req dto.InteractionCreateRequest) (dto.InteractionResponse, error)
	List(ctx context.Context, investorID uint, kind string) ([]dto.InteractionResponse, error)
	Remove(ctx context.Context, investorID, id uint) error
	InvestorConversations(ctx context.Context, investorID uint) ([]conversation.Conversation, error)
	GraduateConversations(ctx context.Context, graduateID uint) ([]conversation.Conversation, error)
}

type interactionService struct {
	repo      repository.InteractionRepository
	projects  repository.ProjectRepository
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	sanitizer *bluemonday.Policy
}

// NewInteractionService constructs an interaction service.
func NewInteractionService(repo repository.InteractionRepository, projects repository.ProjectRepository, validate *validator.Validate, logger zerolog.Logger) InteractionService {
	return &interactionService{
		repo:      repo,
		projects:  projects,
		validator: validate,
		logger:    logger.With().Str("component", "interaction_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gradlink-api/internal/service/interaction"),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (s *interactionService) Record(ctx context.Context, investorID uint, req dto.InteractionCreateRequest) (dto.InteractionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "interaction.record")
	defer span.End()

	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	if err := s.validator.Struct(req); err != nil {
		return dto.InteractionResponse{}, err
	}
	span.SetAttributes(attribute.String("interaction.type", req.Type), attribute.Int("interaction.project_id", int(req.ProjectID)))

	project, err := s.projects.GetByID(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.InteractionResponse{}, ErrProjectUnavailable
		}
		return dto.InteractionResponse{}, err
	}
	if project.Status != models.ProjectStatusPublished {
		return dto.InteractionResponse{}, ErrProjectUnavailable
	}

	interaction := models.Interaction{
		InvestorID: investorID,
		ProjectID:  req.ProjectID,
		Type:       req.Type,
		Message:    s.sanitizer.Sanitize(strings.TrimSpace(req.Message)),
	}
	created, err := s.repo.Record(ctx, &interaction)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record_failed")
		s.logger.Error().Err(err).Uint("project_id", req.ProjectID).Str("type", req.Type).Msg("failed to record interaction")
		return dto.InteractionResponse{}, err
	}
	if !created {
		response := dto.NewInteractionResponse(interaction)
		response.ProjectTitle = project.Title
		return response, nil
	}

	s.logger.Info().
		Uint("investor_id", investorID).
		Uint("project_id", interaction.ProjectID).
		Str("type", interaction.Type).
		Msg("interaction recorded")

	response := dto.NewInteractionResponse(interaction)
	response.ProjectTitle = project.Title
	response.Created = true
	return response, nil
}

func (s *interactionService) List(ctx context.Context, investorID uint, kind string) ([]dto.InteractionResponse, error) {
	records, err := s.repo.ListByInvestor(ctx, investorID, strings.ToLower(kind))
	if err != nil {
		return nil, err
	}

	out := make([]dto.InteractionResponse, 0, len(records))
	for _, record := range records {
		response := dto.NewInteractionResponse(record.Interaction)
		response.ProjectTitle = record.ProjectTitle
		out = append(out, response)
	}
	return out, nil
}

func (s *interactionService) Remove(ctx context.Context, investorID, id uint) error {
	interaction, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInteractionNotFound
		}
		return err
	}
	if interaction.InvestorID != investorID {
		return ErrInteractionForbidden
	}

	if err := s.repo.Delete(ctx, interaction); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInteractionNotFound
		}
		return err
	}

	s.logger.Info().Uint("investor_id", investorID).Uint("interaction_id", id).Msg("interaction removed")
	return nil
}

// InvestorConversations groups the investor's interactions per project thread.
func (s *interactionService) InvestorConversations(ctx context.Context, investorID uint) ([]conversation.Conversation, error) {
	ctx, span := s.tracer.Start(ctx, "interaction.investor_conversations")
	defer span.End()

	records, err := s.repo.ListByInvestor(ctx, investorID, "")
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	rows := make([]conversation.Row, 0, len(records))
	for _, record := range records {
		rows = append(rows, conversation.Row{
			Key: conversation.ProjectKey(record.ProjectID, record.GraduateID),
			Counterpart: conversation.Participant{
				ID:        record.GraduateID,
				Name:      record.GraduateName,
				Role:      models.RoleGraduate,
				AvatarURL: record.GraduateAvatar,
			},
			Project: &conversation.ProjectRef{ID: record.ProjectID, Title: record.ProjectTitle},
			Entry:   interactionEntry(record, investorID),
		})
	}

	grouped := conversation.Group(rows)
	span.SetAttributes(attribute.Int("conversation.count", len(grouped)))
	return grouped, nil
}

// GraduateConversations groups interactions on the graduate's projects per investor.
func (s *interactionService) GraduateConversations(ctx context.Context, graduateID uint) ([]conversation.Conversation, error) {
	ctx, span := s.tracer.Start(ctx, "interaction.graduate_conversations")
	defer span.End()

	records, err := s.repo.ListForGraduate(ctx, graduateID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	rows := make([]conversation.Row, 0, len(records))
	for _, record := range records {
		rows = append(rows, conversation.Row{
			Key: conversation.UserKey(record.InvestorID),
			Counterpart: conversation.Participant{
				ID:        record.InvestorID,
				Name:      record.InvestorName,
				Role:      models.RoleInvestor,
				AvatarURL: record.InvestorAvatar,
			},
			Entry: interactionEntry(record, record.InvestorID),
		})
	}

	grouped := conversation.Group(rows)
	span.SetAttributes(attribute.Int("conversation.count", len(grouped)))
	return grouped, nil
}

func interactionEntry(record repository.InteractionRecord, senderID uint) conversation.Entry {
	return conversation.Entry{
		ID:        record.ID,
		Type:      record.Type,
		Message:   record.Message,
		SenderID:  senderID,
		ProjectID: record.ProjectID,
		CreatedAt: record.CreatedAt,
	}
}
