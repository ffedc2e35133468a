package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradlink-api/internal/dto"
	"github.com/noah-isme/gradlink-api/internal/handler"
	"github.com/noah-isme/gradlink-api/internal/media"
	"github.com/noah-isme/gradlink-api/internal/service"
)

type mockProjectService struct {
	lastQuery   dto.ProjectListQuery
	lastActor   service.ProjectActor
	lastCreate  dto.ProjectCreateRequest
	lastUpdate  dto.ProjectUpdateRequest
	lastOptions service.ProjectWriteOptions
	project     dto.ProjectResponse
	err         error
}

func (m *mockProjectService) List(_ context.Context, query dto.ProjectListQuery) (dto.ProjectListResponse, error) {
	m.lastQuery = query
	if m.err != nil {
		return dto.ProjectListResponse{}, m.err
	}
	return dto.ProjectListResponse{Projects: []dto.ProjectResponse{m.project}, Total: 41}, nil
}

func (m *mockProjectService) Get(_ context.Context, _ uint, actor service.ProjectActor) (dto.ProjectResponse, error) {
	m.lastActor = actor
	return m.project, m.err
}

func (m *mockProjectService) ListMine(_ context.Context, graduateID uint) ([]dto.ProjectResponse, error) {
	m.lastActor = service.ProjectActor{ID: graduateID}
	return []dto.ProjectResponse{m.project}, m.err
}

func (m *mockProjectService) Create(_ context.Context, graduateID uint, req dto.ProjectCreateRequest, opts service.ProjectWriteOptions) (dto.ProjectResponse, error) {
	m.lastActor = service.ProjectActor{ID: graduateID}
	m.lastCreate = req
	m.lastOptions = opts
	return m.project, m.err
}

func (m *mockProjectService) Update(_ context.Context, _ uint, actor service.ProjectActor, req dto.ProjectUpdateRequest, opts service.ProjectWriteOptions) (dto.ProjectResponse, error) {
	m.lastActor = actor
	m.lastUpdate = req
	m.lastOptions = opts
	return m.project, m.err
}

func (m *mockProjectService) Delete(_ context.Context, _ uint, actor service.ProjectActor) error {
	m.lastActor = actor
	return m.err
}

func newProjectApp(svc service.ProjectService, caller fiber.Handler) *fiber.App {
	app := fiber.New()
	auth := handler.RouteAuth{Required: caller, Optional: caller}
	handler.NewProjectHandler(svc, testLogger()).Register(app.Group("/projects"), auth)
	return app
}

func TestProjectHandlerListReturnsPagination(t *testing.T) {
	svc := &mockProjectService{project: dto.ProjectResponse{ID: 1, Title: "Solar Kiosk"}}
	app := newProjectApp(svc, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/projects?category=energy&page=2&pageSize=20", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.ProjectListResponse `json:"data"`
		Meta dto.PaginationMeta      `json:"meta"`
	}
	decodeResponse(t, resp, &body)

	require.Equal(t, "energy", svc.lastQuery.Category)
	require.Equal(t, 2, svc.lastQuery.Page)
	require.Len(t, body.Data.Projects, 1)
	require.Equal(t, int64(41), body.Meta.TotalItems)
	require.Equal(t, 3, body.Meta.TotalPages)
}

func TestProjectHandlerGetAllowsAnonymousCallers(t *testing.T) {
	svc := &mockProjectService{project: dto.ProjectResponse{ID: 5, Views: 11}}
	app := newProjectApp(svc, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/projects/5", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.ProjectEnvelope `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, int64(11), body.Data.Project.Views)
	require.Zero(t, svc.lastActor.ID)

	svc.err = service.ErrProjectNotFound
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/projects/5", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/projects/abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestProjectHandlerCreateFromJSON(t *testing.T) {
	svc := &mockProjectService{project: dto.ProjectResponse{ID: 9, Status: "pending"}}
	app := newProjectApp(svc, asUser(3, "graduate"))

	req := httptest.NewRequest(http.MethodPost, "/projects?strict=true", jsonBody(t, map[string]interface{}{
		"title":     "Solar Kiosk",
		"category":  "energy",
		"imageUrls": []string{"https://drive.google.com/file/d/abc"},
	}))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, uint(3), svc.lastActor.ID)
	require.True(t, svc.lastOptions.StrictMedia)
	require.JSONEq(t, `["https://drive.google.com/file/d/abc"]`, string(svc.lastCreate.ImageURLs))
}

func TestProjectHandlerCreateFromMultipart(t *testing.T) {
	svc := &mockProjectService{project: dto.ProjectResponse{ID: 9}}
	app := newProjectApp(svc, asUser(3, "graduate"))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("title", "Solar Kiosk"))
	require.NoError(t, writer.WriteField("category", "energy"))
	require.NoError(t, writer.WriteField("fundingGoal", "2500.5"))
	require.NoError(t, writer.WriteField("imageUrls", `["https://drive.google.com/file/d/abc"]`))
	require.NoError(t, writer.WriteField("videoUrls", "https://youtu.be/one"))
	require.NoError(t, writer.WriteField("videoUrls", "https://youtu.be/two"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/projects", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	require.Equal(t, "Solar Kiosk", svc.lastCreate.Title)
	require.NotNil(t, svc.lastCreate.FundingGoal)
	require.InDelta(t, 2500.5, *svc.lastCreate.FundingGoal, 0.001)
	require.False(t, svc.lastOptions.StrictMedia)

	var encoded string
	require.NoError(t, json.Unmarshal(svc.lastCreate.ImageURLs, &encoded))
	require.Equal(t, []string{"https://drive.google.com/file/d/abc"}, media.Normalize(media.KindImages, encoded))
	require.JSONEq(t, `["https://youtu.be/one","https://youtu.be/two"]`, string(svc.lastCreate.VideoURLs))
}

func TestProjectHandlerMultipartLoneValueIsDecodedAsJSON(t *testing.T) {
	svc := &mockProjectService{project: dto.ProjectResponse{ID: 9}}
	app := newProjectApp(svc, asUser(3, "graduate"))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("title", "Solar Kiosk"))
	require.NoError(t, writer.WriteField("category", "energy"))
	require.NoError(t, writer.WriteField("imageUrls", "https://drive.google.com/file/d/1/view"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/projects", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var multipartValue string
	require.NoError(t, json.Unmarshal(svc.lastCreate.ImageURLs, &multipartValue))
	require.Equal(t, []string{}, media.Normalize(media.KindImages, multipartValue))

	req = httptest.NewRequest(http.MethodPost, "/projects", jsonBody(t, map[string]string{
		"title":     "Solar Kiosk",
		"category":  "energy",
		"imageUrls": "https://drive.google.com/file/d/1/view",
	}))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var jsonValue string
	require.NoError(t, json.Unmarshal(svc.lastCreate.ImageURLs, &jsonValue))
	require.Equal(t, multipartValue, jsonValue)
}

func TestProjectHandlerStrictMediaReturnsRejections(t *testing.T) {
	rejection := &media.ValidationError{Kind: media.KindImages, Rejections: []media.Rejection{{Index: 0, Value: "ftp://x", Reason: "not a drive link"}}}
	svc := &mockProjectService{err: fmt.Errorf("%w: %w", service.ErrInvalidMedia, rejection)}
	app := newProjectApp(svc, asUser(3, "graduate"))

	req := httptest.NewRequest(http.MethodPost, "/projects?strict=1", jsonBody(t, map[string]string{"title": "Solar Kiosk", "category": "energy"}))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.False(t, body.Success)

	var details []media.ValidationError
	require.NoError(t, json.Unmarshal(body.Details, &details))
	require.Len(t, details, 1)
	require.Equal(t, media.KindImages, details[0].Kind)
	require.Equal(t, "ftp://x", details[0].Rejections[0].Value)
}

func TestProjectHandlerWriteGuards(t *testing.T) {
	svc := &mockProjectService{}

	app := newProjectApp(svc, asUser(4, "investor"))
	req := httptest.NewRequest(http.MethodPost, "/projects", jsonBody(t, map[string]string{"title": "x"}))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	anonymous := newProjectApp(svc, nil)
	resp, err = anonymous.Test(httptest.NewRequest(http.MethodDelete, "/projects/2", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	svc.err = service.ErrProjectForbidden
	graduate := newProjectApp(svc, asUser(3, "graduate"))
	req = httptest.NewRequest(http.MethodPatch, "/projects/2", jsonBody(t, map[string]string{"status": "completed"}))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err = graduate.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Equal(t, "completed", *svc.lastUpdate.Status)
	require.Equal(t, service.ProjectActor{ID: 3, Role: "graduate"}, svc.lastActor)
}

func TestProjectHandlerAdminMayDelete(t *testing.T) {
	svc := &mockProjectService{}
	app := newProjectApp(svc, asUser(1, "admin"))

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/projects/2", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "admin", svc.lastActor.Role)
}
