package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradlink-api/internal/config"
	"github.com/noah-isme/gradlink-api/internal/handler"
)

func TestHealthCheckReportsProbes(t *testing.T) {
	cfg := config.Config{AppName: "GradLink API", AppEnv: "test"}
	up := handler.HealthProbe{Name: "database", Check: func(context.Context) error { return nil }}
	down := handler.HealthProbe{Name: "redis", Check: func(context.Context) error { return errors.New("refused") }}

	app := fiber.New()
	app.Get("/ok", handler.HealthCheck(cfg, up))
	app.Get("/degraded", handler.HealthCheck(cfg, up, down))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/degraded", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var body struct {
		Data handler.HealthResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "degraded", body.Data.Status)
	require.Equal(t, map[string]string{"database": "up", "redis": "down"}, body.Data.Dependencies)
}
