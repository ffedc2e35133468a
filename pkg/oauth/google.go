// Package oauth implements third-party sign-in providers.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// ErrEmailNotVerified indicates the provider returned an account without a verified email.
var ErrEmailNotVerified = errors.New("email address not verified by provider")

// Identity is the subset of the provider profile needed to find or create an account.
type Identity struct {
	Subject   string
	Email     string
	Name      string
	AvatarURL string
}

// Config contains the OAuth client registration. Endpoint overrides are only used in tests.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoint     *oauth2.Endpoint
	UserInfoURL  string
}

// GoogleProvider exchanges Google authorization codes for identities.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
	logger      zerolog.Logger
}

// NewGoogle constructs a Google provider.
func NewGoogle(cfg Config, logger zerolog.Logger) (*GoogleProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil, fmt.Errorf("google oauth credentials must be provided")
	}

	endpoint := endpoints.Google
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = googleUserInfoURL
	}

	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: userInfoURL,
		logger:      logger.With().Str("component", "google_oauth").Logger(),
	}, nil
}

// AuthCodeURL returns the consent screen URL for the given state.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the signed-in user's identity.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	token, err := p.config.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return Identity{}, fmt.Errorf("exchange authorization code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return Identity{}, err
	}

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		p.logger.Warn().Int("status", resp.StatusCode).Str("body", string(body)).Msg("userinfo request rejected")
		return Identity{}, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var profile struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return Identity{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if profile.Sub == "" || profile.Email == "" {
		return Identity{}, fmt.Errorf("userinfo missing subject or email")
	}
	if !profile.EmailVerified {
		return Identity{}, ErrEmailNotVerified
	}

	return Identity{
		Subject:   profile.Sub,
		Email:     strings.ToLower(profile.Email),
		Name:      profile.Name,
		AvatarURL: profile.Picture,
	}, nil
}
