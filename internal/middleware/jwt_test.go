package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func identityApp(guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/", guard, func(c *fiber.Ctx) error {
		id, _ := c.Locals("user_id").(uint)
		role, _ := c.Locals("user_role").(string)
		return c.JSON(fiber.Map{"id": id, "role": role})
	})
	return app
}

func TestJWTProtectedBindsIdentity(t *testing.T) {
	app := identityApp(JWTProtected(testSecret))
	token := signedToken(t, testSecret, jwt.MapClaims{"sub": "42", "role": "Investor", "exp": time.Now().Add(time.Hour).Unix()})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJWTProtectedRejectsBadTokens(t *testing.T) {
	app := identityApp(JWTProtected(testSecret))

	cases := map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"wrong secret": "Bearer " + signedToken(t, "other", jwt.MapClaims{"sub": "1"}),
		"expired":      "Bearer " + signedToken(t, testSecret, jwt.MapClaims{"sub": "1", "exp": time.Now().Add(-time.Hour).Unix()}),
	}

	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err, name)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, name)
	}
}

func TestJWTOptionalAllowsAnonymous(t *testing.T) {
	app := identityApp(JWTOptional(testSecret))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestExtractClaims(t *testing.T) {
	id := extractUserIDFromClaims(jwt.MapClaims{"sub": float64(7)})
	require.NotNil(t, id)
	require.Equal(t, uint(7), *id)

	require.Nil(t, extractUserIDFromClaims(jwt.MapClaims{"sub": "abc"}))
	require.Equal(t, "admin", extractUserRoleFromClaims(jwt.MapClaims{"roles": []interface{}{" ADMIN "}}))
}

func TestWebSocketTokenPromotesQueryToken(t *testing.T) {
	app := fiber.New()
	app.Get("/ws", WebSocketToken(), JWTProtected(testSecret), func(c *fiber.Ctx) error {
		id, _ := c.Locals("user_id").(uint)
		return c.JSON(fiber.Map{"id": id})
	})
	token := signedToken(t, testSecret, jwt.MapClaims{"sub": "9", "role": "graduate", "exp": time.Now().Add(time.Hour).Unix()})

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	plain := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	resp, err = app.Test(plain)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
