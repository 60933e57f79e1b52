package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/reset-corp/reset-backend/internal/database"
	"github.com/reset-corp/reset-backend/internal/middleware"
	"github.com/reset-corp/reset-backend/internal/models"
	"github.com/reset-corp/reset-backend/internal/utils"
)

// ServiceHandler manages the services marketing resource.
type ServiceHandler struct {
	db *mongo.Database
}

// NewServiceHandler constructs ServiceHandler.
func NewServiceHandler(db *mongo.Database) *ServiceHandler {
	return &ServiceHandler{db: db}
}

func (h *ServiceHandler) services() *mongo.Collection {
	return h.db.Collection(database.ColServices)
}

// ListServices returns services. Non-admin callers only see active ones.
func (h *ServiceHandler) ListServices(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	filter := bson.D{}

	if role, ok := middleware.GetCurrentRole(c); !ok || role != models.RoleAdmin {
		filter = append(filter, bson.E{Key: "is_active", Value: true})
	}

	total, err := database.Count(c.Context(), h.services(), filter)
	if err != nil {
		return err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(pg.Offset)).
		SetLimit(int64(pg.Limit))

	items, err := database.FindMany[models.Service](c.Context(), h.services(), filter, opts)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       items,
		"pagination": pg.Envelope(total),
	})
}

// GetService returns a single service by ID.
func (h *ServiceHandler) GetService(c *fiber.Ctx) error {
	id, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	service, err := database.FindOne[models.Service](c.Context(), h.services(), bson.D{{Key: "_id", Value: id}})
	if err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusNotFound, "service not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": service})
}

type serviceRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Icon        string   `json:"icon"`
	IsActive    *bool    `json:"is_active"`
}

// CreateService persists a new service. Service names are unique.
func (h *ServiceHandler) CreateService(c *fiber.Ctx) error {
	var req serviceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ve := &utils.ValidationErrors{}
	ve.Require("name", req.Name)
	ve.Require("description", req.Description)
	if ve.Any() {
		return ve
	}

	service := models.Service{
		Name:        req.Name,
		Description: req.Description,
		Features:    req.Features,
		Icon:        req.Icon,
		IsActive:    true,
	}
	if req.IsActive != nil {
		service.IsActive = *req.IsActive
	}
	service.Stamp()

	if err := database.InsertOne(c.Context(), h.services(), &service); err != nil {
		if err == database.ErrDuplicate {
			return fiber.NewError(fiber.StatusBadRequest, "service name already exists")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": service})
}

// UpdateService updates an existing service.
func (h *ServiceHandler) UpdateService(c *fiber.Ctx) error {
	id, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req serviceRequest
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
	if req.Features != nil {
		fields = append(fields, bson.E{Key: "features", Value: req.Features})
	}
	if req.Icon != "" {
		fields = append(fields, bson.E{Key: "icon", Value: req.Icon})
	}
	if req.IsActive != nil {
		fields = append(fields, bson.E{Key: "is_active", Value: *req.IsActive})
	}
	if len(fields) == 1 {
		return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
	}

	if err := database.UpdateByID(c.Context(), h.services(), id, fields); err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusNotFound, "service not found")
		}
		if err == database.ErrDuplicate {
			return fiber.NewError(fiber.StatusBadRequest, "service name already exists")
		}
		return err
	}

	return h.GetService(c)
}

// DeleteService removes a service by ID.
func (h *ServiceHandler) DeleteService(c *fiber.Ctx) error {
	id, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := database.DeleteByID(c.Context(), h.services(), id); err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusNotFound, "service not found")
		}
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
