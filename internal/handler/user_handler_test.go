package handler_test

import (
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradlink-api/internal/dto"
	"github.com/noah-isme/gradlink-api/internal/handler"
	"github.com/noah-isme/gradlink-api/internal/service"
)

type mockUserService struct {
	lastUser   uint
	lastUpdate dto.UserUpdateRequest
	avatarName string
	err        error
}

func (m *mockUserService) Me(_ context.Context, userID uint) (dto.UserResponse, error) {
	m.lastUser = userID
	return dto.UserResponse{ID: userID, Email: "me@example.com"}, m.err
}

func (m *mockUserService) Profile(_ context.Context, userID uint) (dto.UserResponse, error) {
	m.lastUser = userID
	return dto.UserResponse{ID: userID}, m.err
}

func (m *mockUserService) UpdateMe(_ context.Context, userID uint, req dto.UserUpdateRequest) (dto.UserResponse, error) {
	m.lastUser = userID
	m.lastUpdate = req
	return dto.UserResponse{ID: userID}, m.err
}

func (m *mockUserService) UpdateAvatar(_ context.Context, userID uint, file *multipart.FileHeader) (dto.UserResponse, error) {
	m.lastUser = userID
	m.avatarName = file.Filename
	return dto.UserResponse{ID: userID, AvatarURL: "https://cdn.example.com/" + file.Filename}, m.err
}

func newUserApp(svc service.UserService) *fiber.App {
	app := fiber.New()
	handler.NewUserHandler(svc, testLogger()).Register(app.Group("/users", asUser(7, "graduate")))
	return app
}

func TestUserHandlerMeAndProfile(t *testing.T) {
	svc := &mockUserService{}
	app := newUserApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/users/me", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(7), svc.lastUser)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/users/12", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(12), svc.lastUser)

	svc.err = service.ErrUserNotFound
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/users/12", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUserHandlerUpdateMe(t *testing.T) {
	svc := &mockUserService{}
	app := newUserApp(svc)

	req := httptest.NewRequest(http.MethodPatch, "/users/me", jsonBody(t, map[string]interface{}{
		"bio":         "Water tech",
		"socialLinks": map[string]string{"github": "https://github.com/ada"},
	}))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Water tech", *svc.lastUpdate.Bio)
	require.Nil(t, svc.lastUpdate.Name)
	require.Equal(t, "https://github.com/ada", svc.lastUpdate.SocialLinks["github"])
}

func TestUserHandlerAvatar(t *testing.T) {
	svc := &mockUserService{}
	app := newUserApp(svc)

	body, contentType := multipartFile(t, "file", "me.png", []byte("png"))
	req := httptest.NewRequest(http.MethodPost, "/users/me/avatar", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "me.png", svc.avatarName)

	svc.err = service.ErrUploadTypeNotAllowed
	body, contentType = multipartFile(t, "file", "cv.pdf", []byte("pdf"))
	req = httptest.NewRequest(http.MethodPost, "/users/me/avatar", body)
	req.Header.Set("Content-Type", contentType)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
