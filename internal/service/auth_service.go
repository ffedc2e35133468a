package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/gradlink-api/internal/dto"
	"github.com/noah-isme/gradlink-api/internal/models"
	"github.com/noah-isme/gradlink-api/internal/observability"
	"github.com/noah-isme/gradlink-api/internal/repository"
	"github.com/noah-isme/gradlink-api/pkg/oauth"
)

const oauthStateTTL = 10 * time.Minute

var (
	// ErrEmailTaken indicates another account already uses the email address.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials indicates the email/password pair did not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountDisabled indicates an admin deactivated the account.
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrOAuthUnavailable indicates no identity provider is configured.
	ErrOAuthUnavailable = errors.New("google sign-in is not configured")
	// ErrOAuthState indicates the OAuth state was missing, unknown or expired.
	ErrOAuthState = errors.New("invalid or expired oauth state")
	// ErrRoleRequired indicates a first-time social sign-in did not choose a role.
	ErrRoleRequired = errors.New("role is required to create an account")
)

// IdentityProvider resolves third-party authorization codes to identities.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (oauth.Identity, error)
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	Secret     string
	TTL        time.Duration
	BcryptCost int
}

// AuthService registers users and issues session tokens.
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error)
	GoogleURL(ctx context.Context) (dto.GoogleURLResponse, error)
	GoogleLogin(ctx context.Context, req dto.GoogleLoginRequest) (dto.AuthResponse, error)
}

type authService struct {
	users     repository.UserRepository
	provider  IdentityProvider
	states    *redis.Client
	validator *validator.Validate
	config    AuthConfig
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs the authentication service. provider and states may be nil.
func NewAuthService(users repository.UserRepository, provider IdentityProvider, states *redis.Client, validate *validator.Validate, cfg AuthConfig, logger zerolog.Logger) AuthService {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	return &authService{
		users:     users,
		provider:  provider,
		states:    states,
		validator: validate,
		config:    cfg,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))

	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return dto.AuthResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AuthResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("account registered")
	return s.session(user)
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.AuthAttempts().WithLabelValues("password", "unknown_user").Inc()
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}

	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		observability.AuthAttempts().WithLabelValues("password", "bad_password").Inc()
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	if !user.IsActive {
		observability.AuthAttempts().WithLabelValues("password", "disabled").Inc()
		return dto.AuthResponse{}, ErrAccountDisabled
	}

	observability.AuthAttempts().WithLabelValues("password", "success").Inc()
	return s.session(user)
}

func (s *authService) GoogleURL(ctx context.Context) (dto.GoogleURLResponse, error) {
	if s.provider == nil {
		return dto.GoogleURLResponse{}, ErrOAuthUnavailable
	}

	state := uuid.NewString()
	if s.states != nil {
		if err := s.states.Set(ctx, oauthStateKey(state), "1", oauthStateTTL).Err(); err != nil {
			return dto.GoogleURLResponse{}, fmt.Errorf("store oauth state: %w", err)
		}
	}

	return dto.GoogleURLResponse{URL: s.provider.AuthCodeURL(state), State: state}, nil
}

func (s *authService) GoogleLogin(ctx context.Context, req dto.GoogleLoginRequest) (dto.AuthResponse, error) {
	if s.provider == nil {
		return dto.AuthResponse{}, ErrOAuthUnavailable
	}

	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	if err := s.consumeState(ctx, req.State); err != nil {
		return dto.AuthResponse{}, err
	}

	identity, err := s.provider.Exchange(ctx, req.Code)
	if err != nil {
		observability.AuthAttempts().WithLabelValues("google", "exchange_failed").Inc()
		s.logger.Warn().Err(err).Msg("google code exchange failed")
		return dto.AuthResponse{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	user, err := s.findOrCreateGoogleUser(ctx, identity, req.Role)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	if !user.IsActive {
		observability.AuthAttempts().WithLabelValues("google", "disabled").Inc()
		return dto.AuthResponse{}, ErrAccountDisabled
	}

	observability.AuthAttempts().WithLabelValues("google", "success").Inc()
	return s.session(user)
}

func (s *authService) consumeState(ctx context.Context, state string) error {
	if s.states == nil {
		return nil
	}

	state = strings.TrimSpace(state)
	if state == "" {
		return ErrOAuthState
	}

	deleted, err := s.states.Del(ctx, oauthStateKey(state)).Result()
	if err != nil {
		return fmt.Errorf("consume oauth state: %w", err)
	}
	if deleted == 0 {
		return ErrOAuthState
	}
	return nil
}

func (s *authService) findOrCreateGoogleUser(ctx context.Context, identity oauth.Identity, role string) (models.User, error) {
	user, err := s.users.GetByGoogleID(ctx, identity.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, err
	}

	subject := identity.Subject
	user, err = s.users.GetByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		user.GoogleID = &subject
		if user.AvatarURL == "" {
			user.AvatarURL = identity.AvatarURL
		}
		if err := s.users.Update(ctx, &user); err != nil {
			return models.User{}, err
		}
		s.logger.Info().Uint("user_id", user.ID).Msg("linked google identity to existing account")
		return user, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return models.User{}, err
	}

	if role == "" {
		return models.User{}, ErrRoleRequired
	}

	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = strings.Split(identity.Email, "@")[0]
	}

	user = models.User{
		Name:      name,
		Email:     identity.Email,
		Role:      role,
		AvatarURL: identity.AvatarURL,
		GoogleID:  &subject,
		IsActive:  true,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", role).Msg("account created from google sign-in")
	return user, nil
}

func (s *authService) session(user models.User) (dto.AuthResponse, error) {
	now := s.now()
	expiresAt := now.Add(s.config.TTL)

	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(user.ID), 10),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("sign token: %w", err)
	}

	return dto.AuthResponse{
		User:      dto.NewUserResponse(user),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func oauthStateKey(state string) string {
	return "oauth:state:" + state
}
