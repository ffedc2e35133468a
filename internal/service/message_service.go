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
	// ErrMessageNotFound indicates the message does not exist.
	ErrMessageNotFound = errors.New("message not found")
	// ErrMessageForbidden indicates the caller is not a participant allowed to perform the action.
	ErrMessageForbidden = errors.New("not allowed to modify this message")
	// ErrRecipientNotFound indicates the recipient account does not exist.
	ErrRecipientNotFound = errors.New("recipient not found")
	// ErrSelfMessage indicates a user tried to message themselves.
	ErrSelfMessage = errors.New("cannot send a message to yourself")
	// ErrEmptyMessage indicates the content was empty after sanitization.
	ErrEmptyMessage = errors.New("message content is empty")
)

// MessageService exposes direct messaging use-cases.
type MessageService interface {
	Send(ctx context.Context, senderID uint, req dto.MessageSendRequest) (dto.MessageResponse, error)
	Conversations(ctx context.Context, userID uint) ([]conversation.Conversation, error)
	Thread(ctx context.Context, userID, otherID uint) ([]dto.MessageResponse, error)
	UnreadCount(ctx context.Context, userID uint) (dto.UnreadCountResponse, error)
	MarkRead(ctx context.Context, userID, id uint) (dto.MessageResponse, error)
	Delete(ctx context.Context, userID, id uint) error
}

type messageService struct {
	repo      repository.MessageRepository
	users     repository.UserRepository
	projects  repository.ProjectRepository
	relay     MessageDeliverer
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	sanitizer *bluemonday.Policy
}

// NewMessageService constructs a message service. relay may be nil.
func NewMessageService(repo repository.MessageRepository, users repository.UserRepository, projects repository.ProjectRepository, relay MessageDeliverer, validate *validator.Validate, logger zerolog.Logger) MessageService {
	return &messageService{
		repo:      repo,
		users:     users,
		projects:  projects,
		relay:     relay,
		validator: validate,
		logger:    logger.With().Str("component", "message_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gradlink-api/internal/service/message"),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (s *messageService) Send(ctx context.Context, senderID uint, req dto.MessageSendRequest) (dto.MessageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "message.send")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.MessageResponse{}, err
	}
	if req.RecipientID == senderID {
		return dto.MessageResponse{}, ErrSelfMessage
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(req.Content))
	if content == "" {
		return dto.MessageResponse{}, ErrEmptyMessage
	}

	if _, err := s.users.GetByID(ctx, req.RecipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MessageResponse{}, ErrRecipientNotFound
		}
		return dto.MessageResponse{}, err
	}

	if req.ProjectID != nil {
		if _, err := s.projects.GetByID(ctx, *req.ProjectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.MessageResponse{}, ErrProjectNotFound
			}
			return dto.MessageResponse{}, err
		}
	}

	message := models.Message{
		SenderID:    senderID,
		RecipientID: req.RecipientID,
		ProjectID:   req.ProjectID,
		Content:     content,
	}
	if err := s.repo.Create(ctx, &message); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create_failed")
		return dto.MessageResponse{}, err
	}

	span.SetAttributes(attribute.Int("message.id", int(message.ID)))
	s.logger.Info().Uint("message_id", message.ID).Uint("sender_id", senderID).Uint("recipient_id", req.RecipientID).Msg("message sent")

	response := dto.NewMessageResponse(message)
	if s.relay != nil {
		s.relay.Deliver(ctx, response)
	}
	return response, nil
}

// Conversations groups every message the user exchanged by counterpart, newest conversation first.
func (s *messageService) Conversations(ctx context.Context, userID uint) ([]conversation.Conversation, error) {
	ctx, span := s.tracer.Start(ctx, "message.conversations")
	defer span.End()

	records, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	rows := make([]conversation.Row, 0, len(records))
	for _, record := range records {
		entry := conversation.Entry{
			ID:        record.ID,
			Type:      models.InteractionMessage,
			Message:   record.Content,
			SenderID:  record.SenderID,
			IsRead:    record.IsRead,
			CreatedAt: record.CreatedAt,
		}
		if record.ProjectID != nil {
			entry.ProjectID = *record.ProjectID
		}

		rows = append(rows, conversation.Row{
			Key: conversation.UserKey(record.CounterpartID),
			Counterpart: conversation.Participant{
				ID:        record.CounterpartID,
				Name:      record.CounterpartName,
				Role:      record.CounterpartRole,
				AvatarURL: record.CounterpartAvatar,
			},
			Entry:  entry,
			Unread: record.RecipientID == userID && !record.IsRead,
		})
	}

	grouped := conversation.Group(rows)
	span.SetAttributes(attribute.Int("conversation.count", len(grouped)))
	return grouped, nil
}

// Thread returns the chronological exchange with otherID and marks the incoming side as read.
func (s *messageService) Thread(ctx context.Context, userID, otherID uint) ([]dto.MessageResponse, error) {
	marked, err := s.repo.MarkThreadRead(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	if marked > 0 {
		s.logger.Debug().Uint("user_id", userID).Uint("other_id", otherID).Int64("marked", marked).Msg("thread marked read")
	}

	messages, err := s.repo.Thread(ctx, userID, otherID, 0)
	if err != nil {
		return nil, err
	}
	return dto.NewMessageResponseSlice(messages), nil
}

func (s *messageService) UnreadCount(ctx context.Context, userID uint) (dto.UnreadCountResponse, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return dto.UnreadCountResponse{}, err
	}
	return dto.UnreadCountResponse{Unread: count}, nil
}

func (s *messageService) MarkRead(ctx context.Context, userID, id uint) (dto.MessageResponse, error) {
	message, err := s.load(ctx, id)
	if err != nil {
		return dto.MessageResponse{}, err
	}
	if message.RecipientID != userID {
		return dto.MessageResponse{}, ErrMessageForbidden
	}

	if !message.IsRead {
		if err := s.repo.MarkRead(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.MessageResponse{}, ErrMessageNotFound
			}
			return dto.MessageResponse{}, err
		}
		message.IsRead = true
	}

	return dto.NewMessageResponse(message), nil
}

func (s *messageService) Delete(ctx context.Context, userID, id uint) error {
	message, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if message.SenderID != userID && message.RecipientID != userID {
		return ErrMessageForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return err
	}

	s.logger.Info().Uint("message_id", id).Uint("user_id", userID).Msg("message deleted")
	return nil
}

func (s *messageService) load(ctx context.Context, id uint) (models.Message, error) {
	message, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Message{}, ErrMessageNotFound
		}
		return models.Message{}, err
	}
	return message, nil
}
