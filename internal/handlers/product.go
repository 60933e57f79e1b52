package handlers

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/reset-corp/reset-backend/internal/database"
	"github.com/reset-corp/reset-backend/internal/middleware"
	"github.com/reset-corp/reset-backend/internal/models"
	"github.com/reset-corp/reset-backend/internal/services"
	"github.com/reset-corp/reset-backend/internal/utils"
)

// ProductHandler manages product CRUD.
type ProductHandler struct {
	db     *mongo.Database
	images *services.ImageStore
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *mongo.Database, images *services.ImageStore) *ProductHandler {
	return &ProductHandler{db: db, images: images}
}

func (h *ProductHandler) products() *mongo.Collection {
	return h.db.Collection(database.ColProducts)
}

// ListProducts returns paginated products with optional filters. Non-admin
// callers only see active products.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	filter := bson.D{}

	if role, ok := middleware.GetCurrentRole(c); !ok || role != models.RoleAdmin {
		filter = append(filter, bson.E{Key: "is_active", Value: true})
	}

	if v := c.Query("category"); v != "" {
		if id, err := bson.ObjectIDFromHex(v); err == nil {
			filter = append(filter, bson.E{Key: "category_id", Value: id})
		}
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: bson.D{{Key: "$regex", Value: search}, {Key: "$options", Value: "i"}}}},
			bson.D{{Key: "description", Value: bson.D{{Key: "$regex", Value: search}, {Key: "$options", Value: "i"}}}},
		}})
	}

	price := bson.D{}
	if minPrice := c.Query("min_price"); minPrice != "" {
		if val, err := strconv.ParseFloat(minPrice, 64); err == nil {
			price = append(price, bson.E{Key: "$gte", Value: val})
		}
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if val, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			price = append(price, bson.E{Key: "$lte", Value: val})
		}
	}
	if len(price) > 0 {
		filter = append(filter, bson.E{Key: "price", Value: price})
	}

	total, err := database.Count(c.Context(), h.products(), filter)
	if err != nil {
		return err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(pg.Offset)).
		SetLimit(int64(pg.Limit))

	items, err := database.FindMany[models.Product](c.Context(), h.products(), filter, opts)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       items,
		"pagination": pg.Envelope(total),
	})
}

// GetProduct returns a single product by ID.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	product, err := database.FindOne[models.Product](c.Context(), h.products(), bson.D{{Key: "_id", Value: id}})
	if err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

type productRequest struct {
	Name           string                `json:"name"`
	Description    string                `json:"description"`
	Price          float64               `json:"price"`
	Category       string                `json:"category"`
	Stock          int                   `json:"stock"`
	Images         []models.ProductImage `json:"images"`
	Specifications map[string]string     `json:"specifications"`
	Features       []string              `json:"features"`
	TechnicalSpecs map[string]string     `json:"technical_specs"`
	IsActive       *bool                 `json:"is_active"`
}

func (h *ProductHandler) buildProduct(c *fiber.Ctx, req productRequest) (models.Product, error) {
	ve := &utils.ValidationErrors{}
	ve.Require("name", req.Name)
	ve.Require("category", req.Category)
	if req.Price < 0 {
		ve.Add("price", "must not be negative")
	}
	if req.Stock < 0 {
		ve.Add("stock", "must not be negative")
	}

	var categoryID bson.ObjectID
	if req.Category != "" {
		id, err := bson.ObjectIDFromHex(req.Category)
		if err != nil {
			ve.Add("category", "must be a valid category id")
		} else {
			categoryID = id
		}
	}

	if ve.Any() {
		return models.Product{}, ve
	}

	// The category reference must resolve.
	if _, err := database.FindOne[models.Category](c.Context(),
		h.db.Collection(database.ColCategories), bson.D{{Key: "_id", Value: categoryID}}); err != nil {
		if err == database.ErrNotFound {
			ve.Add("category", "category does not exist")
			return models.Product{}, ve
		}
		return models.Product{}, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	return models.Product{
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		CategoryID:     categoryID,
		Stock:          req.Stock,
		Images:         req.Images,
		Specifications: req.Specifications,
		Features:       req.Features,
		TechnicalSpecs: req.TechnicalSpecs,
		IsActive:       isActive,
	}, nil
}

// CreateProduct handles product creation.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	product, err := h.buildProduct(c, req)
	if err != nil {
		return err
	}
	product.Stamp()

	if err := database.InsertOne(c.Context(), h.products(), &product); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// UpdateProduct updates an existing product. Images dropped from the
// request are removed from object storage.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	existing, err := database.FindOne[models.Product](c.Context(), h.products(), bson.D{{Key: "_id", Value: id}})
	if err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	product, err := h.buildProduct(c, req)
	if err != nil {
		return err
	}
	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	product.Stamp()

	if err := database.UpdateByID(c.Context(), h.products(), id, bson.D{
		{Key: "name", Value: product.Name},
		{Key: "description", Value: product.Description},
		{Key: "price", Value: product.Price},
		{Key: "category_id", Value: product.CategoryID},
		{Key: "stock", Value: product.Stock},
		{Key: "images", Value: product.Images},
		{Key: "specifications", Value: product.Specifications},
		{Key: "features", Value: product.Features},
		{Key: "technical_specs", Value: product.TechnicalSpecs},
		{Key: "is_active", Value: product.IsActive},
		{Key: "updated_at", Value: product.UpdatedAt},
	}); err != nil {
		return err
	}

	h.cleanupImages(existing.Images, product.Images)

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// DeleteProduct removes a product and its stored images.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	existing, err := database.FindOne[models.Product](c.Context(), h.products(), bson.D{{Key: "_id", Value: id}})
	if err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	if err := database.DeleteByID(c.Context(), h.products(), id); err != nil {
		return err
	}

	h.cleanupImages(existing.Images, nil)

	return c.SendStatus(fiber.StatusNoContent)
}

// cleanupImages deletes stored objects present in old but absent from new.
func (h *ProductHandler) cleanupImages(old, new []models.ProductImage) {
	if h.images == nil {
		return
	}

	kept := make(map[string]bool, len(new))
	for _, img := range new {
		kept[img.PublicID] = true
	}

	for _, img := range old {
		if img.PublicID == "" || kept[img.PublicID] {
			continue
		}
		go func(key string) {
			if err := h.images.Delete(context.Background(), key); err != nil {
				log.Printf("[minio] delete %s failed: %v", key, err)
			}
		}(img.PublicID)
	}
}
