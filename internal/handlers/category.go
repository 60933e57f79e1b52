package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/reset-corp/reset-backend/internal/database"
	"github.com/reset-corp/reset-backend/internal/models"
	"github.com/reset-corp/reset-backend/internal/utils"
)

// CategoryHandler manages catalog categories.
type CategoryHandler struct {
	db *mongo.Database
}

// NewCategoryHandler constructs CategoryHandler.
func NewCategoryHandler(db *mongo.Database) *CategoryHandler {
	return &CategoryHandler{db: db}
}

func (h *CategoryHandler) categories() *mongo.Collection {
	return h.db.Collection(database.ColCategories)
}

// ListCategories returns paginated categories.
func (h *CategoryHandler) ListCategories(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	total, err := database.Count(c.Context(), h.categories(), bson.D{})
	if err != nil {
		return err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(pg.Offset)).
		SetLimit(int64(pg.Limit))

	items, err := database.FindMany[models.Category](c.Context(), h.categories(), bson.D{}, opts)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       items,
		"pagination": pg.Envelope(total),
	})
}

// GetCategory returns a single category by ID.
func (h *CategoryHandler) GetCategory(c *fiber.Ctx) error {
	id, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	category, err := database.FindOne[models.Category](c.Context(), h.categories(), bson.D{{Key: "_id", Value: id}})
	if err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": category})
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// CreateCategory persists a new category. Category names are unique.
func (h *CategoryHandler) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}

	category := models.Category{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	category.Stamp()

	if err := database.InsertOne(c.Context(), h.categories(), &category); err != nil {
		if err == database.ErrDuplicate {
			return fiber.NewError(fiber.StatusBadRequest, "category name already exists")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": category})
}

// UpdateCategory updates an existing category.
func (h *CategoryHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	fields := bson.D{{Key: "updated_at", Value: time.Now().UTC()}}
	if req.Name != "" {
		fields = append(fields, bson.E{Key: "name", Value: req.Name})
	}
	if req.Description != "" {
		fields = append(fields, bson.E{Key: "description", Value: req.Description})
	}
	if req.IsActive != nil {
		fields = append(fields, bson.E{Key: "is_active", Value: *req.IsActive})
	}
	if len(fields) == 1 {
		return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
	}

	if err := database.UpdateByID(c.Context(), h.categories(), id, fields); err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		if err == database.ErrDuplicate {
			return fiber.NewError(fiber.StatusBadRequest, "category name already exists")
		}
		return err
	}

	return h.GetCategory(c)
}

// DeleteCategory removes a category by ID. Categories still referenced
// by products cannot be removed.
func (h *CategoryHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	inUse, err := database.Count(c.Context(), h.db.Collection(database.ColProducts),
		bson.D{{Key: "category_id", Value: id}})
	if err != nil {
		return err
	}
	if inUse > 0 {
		return fiber.NewError(fiber.StatusBadRequest, "category has products assigned")
	}

	if err := database.DeleteByID(c.Context(), h.categories(), id); err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
