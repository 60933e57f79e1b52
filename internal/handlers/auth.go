package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/reset-corp/reset-backend/internal/config"
	"github.com/reset-corp/reset-backend/internal/database"
	"github.com/reset-corp/reset-backend/internal/middleware"
	"github.com/reset-corp/reset-backend/internal/models"
	"github.com/reset-corp/reset-backend/internal/utils"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *mongo.Database, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

func (h *AuthHandler) users() *mongo.Collection {
	return h.db.Collection(database.ColUsers)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// Register creates a new customer account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ve := &utils.ValidationErrors{}
	ve.Require("name", req.Name)
	ve.Require("email", req.Email)
	ve.Require("password", req.Password)
	if req.Email != "" && !utils.ValidEmail(req.Email) {
		ve.Add("email", "must be a valid email address")
	}
	if req.Password != "" && len(req.Password) < 6 {
		ve.Add("password", "must be at least 6 characters")
	}
	if ve.Any() {
		return ve
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		if err == utils.ErrPasswordTooLong {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: passwordHash,
		Role:         models.RoleCustomer,
		Profile: models.UserProfile{
			Phone:   req.Phone,
			Address: req.Address,
		},
		IsActive: true,
	}
	user.Stamp()

	if err := database.InsertOne(c.Context(), h.users(), &user); err != nil {
		if err == database.ErrDuplicate {
			return fiber.NewError(fiber.StatusBadRequest, "Email already registered")
		}
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an existing user. Five failed attempts lock the
// account for fifteen minutes.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := database.FindOne[models.User](c.Context(), h.users(), bson.D{{Key: "email", Value: email}})
	if err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
		}
		return err
	}

	if !user.IsActive {
		return fiber.NewError(fiber.StatusForbidden, "account is deactivated")
	}

	if user.IsLocked() {
		return fiber.NewError(fiber.StatusLocked, "account temporarily locked, try again later")
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		if err := h.recordFailedLogin(c, user); err != nil {
			return err
		}
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
	}

	if user.LoginAttempts > 0 || user.LockUntil != nil {
		_ = database.UpdateByID(c.Context(), h.users(), user.ID, bson.D{
			{Key: "login_attempts", Value: 0},
			{Key: "lock_until", Value: nil},
		})
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

func (h *AuthHandler) recordFailedLogin(c *fiber.Ctx, user *models.User) error {
	return database.UpdateByID(c.Context(), h.users(), user.ID,
		failedLoginFields(user.LoginAttempts, time.Now()))
}

// failedLoginFields builds the $set document for one more failed attempt.
// Reaching the limit locks the account and resets the counter; each field
// path must appear exactly once or MongoDB rejects the update.
func failedLoginFields(prevAttempts int, now time.Time) bson.D {
	attempts := prevAttempts + 1
	if attempts >= models.MaxLoginAttempts {
		return bson.D{
			{Key: "login_attempts", Value: 0},
			{Key: "lock_until", Value: now.Add(models.LockoutDuration)},
		}
	}
	return bson.D{{Key: "login_attempts", Value: attempts}}
}

// GetProfile returns the authenticated user's document.
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	user, err := database.FindOne[models.User](c.Context(), h.users(), bson.D{{Key: "_id", Value: userID}})
	if err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": user})
}

type updateProfileRequest struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	ProfilePicture string `json:"profile_picture"`
}

// UpdateProfile changes the authenticated user's contact details.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	fields := bson.D{{Key: "updated_at", Value: time.Now().UTC()}}
	if req.Name != "" {
		fields = append(fields, bson.E{Key: "name", Value: req.Name})
	}
	if req.Phone != "" {
		fields = append(fields, bson.E{Key: "profile.phone", Value: req.Phone})
	}
	if req.Address != "" {
		fields = append(fields, bson.E{Key: "profile.address", Value: req.Address})
	}
	if req.ProfilePicture != "" {
		fields = append(fields, bson.E{Key: "profile_picture", Value: req.ProfilePicture})
	}

	if err := database.UpdateByID(c.Context(), h.users(), userID, fields); err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	return h.GetProfile(c)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword replaces the authenticated user's password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if len(req.NewPassword) < 6 {
		return fiber.NewError(fiber.StatusBadRequest, "password must be at least 6 characters")
	}

	user, err := database.FindOne[models.User](c.Context(), h.users(), bson.D{{Key: "_id", Value: userID}})
	if err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		if err == utils.ErrPasswordTooLong {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	if err := database.UpdateByID(c.Context(), h.users(), userID, bson.D{
		{Key: "password_hash", Value: hash},
		{Key: "updated_at", Value: time.Now().UTC()},
	}); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "password updated successfully"})
}
