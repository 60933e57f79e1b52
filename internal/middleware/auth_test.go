package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/reset-corp/reset-backend/internal/config"
	"github.com/reset-corp/reset-backend/internal/models"
	"github.com/reset-corp/reset-backend/internal/utils"
)

func testApp(cfg *config.Config) *fiber.App {
	app := fiber.New()

	app.Get("/me", AuthMiddleware(cfg), func(c *fiber.Ctx) error {
		id, _ := GetCurrentUserID(c)
		role, _ := GetCurrentRole(c)
		return c.JSON(fiber.Map{"id": id.Hex(), "role": role})
	})

	app.Get("/admin", AuthMiddleware(cfg), AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	return app
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	app := testApp(&config.Config{JWTSecret: "secret"})

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareBadToken(t *testing.T) {
	app := testApp(&config.Config{JWTSecret: "secret"})

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret"}
	app := testApp(cfg)

	token, err := utils.GenerateToken(cfg.JWTSecret, bson.NewObjectID(), models.RoleCustomer, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminOnlyRejectsCustomer(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret"}
	app := testApp(cfg)

	token, err := utils.GenerateToken(cfg.JWTSecret, bson.NewObjectID(), models.RoleCustomer, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAdminOnlyAllowsAdmin(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret"}
	app := testApp(cfg)

	token, err := utils.GenerateToken(cfg.JWTSecret, bson.NewObjectID(), models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
