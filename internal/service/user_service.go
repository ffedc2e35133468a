package service

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gradlink-api/internal/dto"
	"github.com/noah-isme/gradlink-api/internal/models"
	"github.com/noah-isme/gradlink-api/internal/repository"
)

// UserService manages account profiles.
type UserService interface {
	Me(ctx context.Context, userID uint) (dto.UserResponse, error)
	Profile(ctx context.Context, userID uint) (dto.UserResponse, error)
	UpdateMe(ctx context.Context, userID uint, req dto.UserUpdateRequest) (dto.UserResponse, error)
	UpdateAvatar(ctx context.Context, userID uint, file *multipart.FileHeader) (dto.UserResponse, error)
}

type userService struct {
	users     repository.UserRepository
	uploads   UploadService
	validator *validator.Validate
	logger    zerolog.Logger
	sanitizer *bluemonday.Policy
}

// NewUserService constructs the profile service. uploads may be nil when no storage is configured.
func NewUserService(users repository.UserRepository, uploads UploadService, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		uploads:   uploads,
		validator: validate,
		logger:    logger.With().Str("component", "user_service").Logger(),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (s *userService) Me(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

// Profile returns the public view of an active account.
func (s *userService) Profile(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, err
	}
	if !user.IsActive {
		return dto.UserResponse{}, ErrUserNotFound
	}
	return dto.NewPublicUserResponse(user), nil
}

func (s *userService) UpdateMe(ctx context.Context, userID uint, req dto.UserUpdateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, err
	}

	if req.Name != nil {
		user.Name = s.sanitizer.Sanitize(strings.TrimSpace(*req.Name))
	}
	if req.Bio != nil {
		user.Bio = s.sanitizer.Sanitize(strings.TrimSpace(*req.Bio))
	}
	if req.University != nil {
		user.University = s.sanitizer.Sanitize(strings.TrimSpace(*req.University))
	}
	if req.Company != nil {
		user.Company = s.sanitizer.Sanitize(strings.TrimSpace(*req.Company))
	}
	if req.SocialLinks != nil {
		links := datatypes.JSONMap{}
		for key, value := range req.SocialLinks {
			links[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
		}
		user.SocialLinks = links
	}

	if err := s.users.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", userID).Msg("profile updated")
	return dto.NewUserResponse(user), nil
}

func (s *userService) UpdateAvatar(ctx context.Context, userID uint, file *multipart.FileHeader) (dto.UserResponse, error) {
	if s.uploads == nil {
		return dto.UserResponse{}, errors.New("uploads are not configured")
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, err
	}

	uploaded, err := s.uploads.Upload(ctx, file, &userID, UploadOptions{ImagesOnly: true})
	if err != nil {
		return dto.UserResponse{}, err
	}

	user.AvatarURL = uploaded.URL
	if err := s.users.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", userID).Str("avatar_url", uploaded.URL).Msg("avatar updated")
	return dto.NewUserResponse(user), nil
}

func (s *userService) load(ctx context.Context, userID uint) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
