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
)

// CartHandler manages the server-persisted per-user cart.
type CartHandler struct {
	db *mongo.Database
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(db *mongo.Database) *CartHandler {
	return &CartHandler{db: db}
}

func (h *CartHandler) carts() *mongo.Collection {
	return h.db.Collection(database.ColCarts)
}

func (h *CartHandler) loadCart(c *fiber.Ctx, userID bson.ObjectID) (*models.Cart, error) {
	cart, err := database.FindOne[models.Cart](c.Context(), h.carts(), bson.D{{Key: "user_id", Value: userID}})
	if err != nil {
		if err == database.ErrNotFound {
			return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
		}
		return nil, err
	}
	return cart, nil
}

func (h *CartHandler) saveItems(c *fiber.Ctx, userID bson.ObjectID, items []models.CartItem) error {
	now := time.Now().UTC()
	_, err := h.carts().UpdateOne(c.Context(),
		bson.D{{Key: "user_id", Value: userID}},
		bson.D{
			{Key: "$set", Value: bson.D{{Key: "items", Value: items}, {Key: "updated_at", Value: now}}},
			{Key: "$setOnInsert", Value: bson.D{{Key: "created_at", Value: now}}},
		},
		options.UpdateOne().SetUpsert(true))
	return err
}

// GetCart returns the authenticated user's cart.
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	cart, err := h.loadCart(c, userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": cart, "subtotal": cart.Subtotal()})
}

type addToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddToCart adds a product line, merging quantities when the product is
// already present. Product name, price and image are snapshotted.
func (h *CartHandler) AddToCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req addToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	productID, err := bson.ObjectIDFromHex(req.ProductID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	product, err := database.FindOne[models.Product](c.Context(),
		h.db.Collection(database.ColProducts), bson.D{{Key: "_id", Value: productID}})
	if err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	cart, err := h.loadCart(c, userID)
	if err != nil {
		return err
	}

	found := false
	for i, item := range cart.Items {
		if item.ProductID == productID {
			cart.Items[i].Quantity += req.Quantity
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: productID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  req.Quantity,
			Image:     product.PrimaryImage(),
		})
	}

	if err := h.saveItems(c, userID, cart.Items); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": cart, "subtotal": cart.Subtotal()})
}

type updateCartRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateCartItem sets the quantity of a cart line. Zero removes the line.
func (h *CartHandler) UpdateCartItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	productID, err := bson.ObjectIDFromHex(c.Params("productId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var req updateCartRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	cart, err := h.loadCart(c, userID)
	if err != nil {
		return err
	}

	found := false
	for i, item := range cart.Items {
		if item.ProductID == productID {
			if req.Quantity > 0 {
				cart.Items[i].Quantity = req.Quantity
			} else {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			}
			found = true
			break
		}
	}
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "item not in cart")
	}

	if err := h.saveItems(c, userID, cart.Items); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": cart, "subtotal": cart.Subtotal()})
}

// RemoveCartItem deletes a cart line.
func (h *CartHandler) RemoveCartItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	productID, err := bson.ObjectIDFromHex(c.Params("productId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	cart, err := h.loadCart(c, userID)
	if err != nil {
		return err
	}

	for i, item := range cart.Items {
		if item.ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			break
		}
	}

	if err := h.saveItems(c, userID, cart.Items); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": cart, "subtotal": cart.Subtotal()})
}

// ClearCart removes every line from the cart.
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.saveItems(c, userID, []models.CartItem{}); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "cart cleared"})
}
