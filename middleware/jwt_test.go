package middleware_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"coursepilot/config"
	"coursepilot/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupJWTConfig(t *testing.T) {
	t.Helper()
	old := config.AppConfig
	config.AppConfig = &config.Config{JWTKey: "test-secret"}
	t.Cleanup(func() { config.AppConfig = old })
}

func protectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/protected", middleware.JWTMiddleware, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals("userId"),
			"org_id":  c.Locals("orgId"),
			"name":    c.Locals("userName"),
		})
	})
	return app
}

func TestJWTMiddlewareAcceptsValidToken(t *testing.T) {
	setupJWTConfig(t)

	token, err := middleware.GenerateJWT(42, "Priya Nair", "AUTHOR", "priya@corp.test", 7)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := protectedApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(42), body["user_id"])
	assert.Equal(t, float64(7), body["org_id"])
	assert.Equal(t, "Priya Nair", body["name"])
}

func TestJWTMiddlewareRejectsMissingHeader(t *testing.T) {
	setupJWTConfig(t)

	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := protectedApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTMiddlewareRejectsNonNumericUserID(t *testing.T) {
	setupJWTConfig(t)

	// Validly signed token whose userId is a string, not a number.
	claims := jwt.MapClaims{
		"userId": "42",
		"name":   "Priya Nair",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := protectedApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTMiddlewareRejectsMalformedToken(t *testing.T) {
	setupJWTConfig(t)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := protectedApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
