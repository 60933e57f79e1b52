package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/reset-corp/reset-backend/internal/config"
	"github.com/reset-corp/reset-backend/internal/database"
	"github.com/reset-corp/reset-backend/internal/models"
	"github.com/reset-corp/reset-backend/internal/services"
	"github.com/reset-corp/reset-backend/internal/utils"
)

// PasswordResetHandler manages forgot-password endpoints.
type PasswordResetHandler struct {
	db    *mongo.Database
	cfg   *config.Config
	email *services.EmailService
}

// NewPasswordResetHandler constructs a PasswordResetHandler.
func NewPasswordResetHandler(db *mongo.Database, cfg *config.Config, email *services.EmailService) *PasswordResetHandler {
	return &PasswordResetHandler{db: db, cfg: cfg, email: email}
}

func (h *PasswordResetHandler) resets() *mongo.Collection {
	return h.db.Collection(database.ColPasswordResets)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword initiates the reset flow: validates the user, generates a
// 6-digit code, emails it, and returns a reset token. The response is the
// same whether or not the email exists.
func (h *PasswordResetHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email is required")
	}

	user, err := database.FindOne[models.User](c.Context(), h.db.Collection(database.ColUsers),
		bson.D{{Key: "email", Value: email}})
	if err != nil && err != database.ErrNotFound {
		return err
	}

	if user == nil {
		// Do not reveal whether the account exists: answer with the same
		// shape, including a throwaway token that is never stored.
		dummy := make([]byte, 32)
		if _, err := rand.Read(dummy); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "if the account exists, a code has been sent",
			"token":   hex.EncodeToString(dummy),
		})
	}

	code, err := generateResetCode()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate code")
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}
	resetToken := hex.EncodeToString(tokenBytes)

	// Expire any previous unused reset tokens for this email.
	_, _ = h.resets().UpdateMany(c.Context(),
		bson.D{{Key: "email", Value: email}, {Key: "used_at", Value: nil}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "expires_at", Value: time.Now()}}}})

	record := models.PasswordResetToken{
		Email:     email,
		Token:     resetToken,
		Code:      code,
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	record.Stamp()

	if err := database.InsertOne(c.Context(), h.resets(), &record); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create reset token")
	}

	go func() {
		body := fmt.Sprintf("<p>Your password reset code is <b>%s</b>. It expires in 10 minutes.</p>", code)
		if err := h.email.Send(email, "Password reset code", body); err != nil {
			log.Printf("[email] reset code to %s failed: %v", email, err)
		}
	}()

	return c.JSON(fiber.Map{
		"success": true,
		"message": "if the account exists, a code has been sent",
		"token":   resetToken,
	})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// ResetPassword verifies the emailed code and updates the password.
func (h *PasswordResetHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Token == "" || req.Code == "" || req.NewPassword == "" {
		return fiber.NewError(fiber.StatusBadRequest, "token, code and new_password are required")
	}

	if len(req.NewPassword) < 6 {
		return fiber.NewError(fiber.StatusBadRequest, "password must be at least 6 characters")
	}

	record, err := database.FindOne[models.PasswordResetToken](c.Context(), h.resets(),
		bson.D{{Key: "token", Value: req.Token}})
	if err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusNotFound, "invalid reset token")
		}
		return err
	}

	if record.UsedAt != nil {
		return fiber.NewError(fiber.StatusBadRequest, "token already used")
	}

	if record.ExpiresAt.Before(time.Now()) {
		return fiber.NewError(fiber.StatusBadRequest, "token expired")
	}

	if record.Code != req.Code {
		return fiber.NewError(fiber.StatusBadRequest, "invalid verification code")
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		if err == utils.ErrPasswordTooLong {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	if _, err := h.db.Collection(database.ColUsers).UpdateOne(c.Context(),
		bson.D{{Key: "email", Value: record.Email}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "password_hash", Value: hash},
			{Key: "login_attempts", Value: 0},
			{Key: "lock_until", Value: nil},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}}); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update password")
	}

	now := time.Now()
	_ = database.UpdateByID(c.Context(), h.resets(), record.ID, bson.D{
		{Key: "verified", Value: true},
		{Key: "used_at", Value: now},
	})

	return c.JSON(fiber.Map{"success": true, "message": "password updated successfully"})
}

func generateResetCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
