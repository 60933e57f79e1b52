package handlers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/reset-corp/reset-backend/internal/services"
)

// 5 MB upload cap for images.
const maxImageSize = 5 << 20

// UploadHandler manages image uploads to object storage.
type UploadHandler struct {
	images *services.ImageStore
}

// NewUploadHandler constructs UploadHandler.
func NewUploadHandler(images *services.ImageStore) *UploadHandler {
	return &UploadHandler{images: images}
}

// UploadImage stores a multipart image and returns its URL and public ID.
func (h *UploadHandler) UploadImage(c *fiber.Ctx) error {
	if h.images == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "object storage is not configured")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "image file is required")
	}

	if fileHeader.Size > maxImageSize {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "image exceeds 5 MB limit")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return fiber.NewError(fiber.StatusBadRequest, "only image uploads are allowed")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	key := fmt.Sprintf("%s%s", uuid.NewString(), strings.ToLower(filepath.Ext(fileHeader.Filename)))

	url, err := h.images.Upload(c.Context(), key, file, fileHeader.Size, contentType)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"url":       url,
			"public_id": key,
		},
	})
}

// DeleteImage removes a stored image by its public ID.
func (h *UploadHandler) DeleteImage(c *fiber.Ctx) error {
	if h.images == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "object storage is not configured")
	}

	publicID := c.Params("publicId")
	if publicID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "public id is required")
	}

	if err := h.images.Delete(c.Context(), publicID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
