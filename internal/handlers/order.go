package handlers

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

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

// OrderHandler manages order endpoints.
type OrderHandler struct {
	db    *mongo.Database
	email *services.EmailService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *mongo.Database, email *services.EmailService) *OrderHandler {
	return &OrderHandler{db: db, email: email}
}

func (h *OrderHandler) orders() *mongo.Collection {
	return h.db.Collection(database.ColOrders)
}

type orderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	Items          []orderItemRequest    `json:"items"`
	BillingAddress models.BillingAddress `json:"billing_address"`
	Notes          string                `json:"notes"`
}

// stockError describes a line that cannot be fulfilled.
type stockError struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// buildOrderItems snapshots each requested line from the live product,
// using current prices rather than anything the client submitted, and
// collects lines whose stock cannot cover the requested quantity.
func buildOrderItems(products map[bson.ObjectID]*models.Product, lines []orderItemRequest) ([]models.OrderItem, []stockError) {
	items := make([]models.OrderItem, 0, len(lines))
	var short []stockError

	for _, line := range lines {
		id, err := bson.ObjectIDFromHex(line.ProductID)
		if err != nil {
			continue
		}
		product, ok := products[id]
		if !ok {
			continue
		}

		qty := line.Quantity
		if qty <= 0 {
			qty = 1
		}

		if product.Stock < qty {
			short = append(short, stockError{
				ProductID: id.Hex(),
				Name:      product.Name,
				Requested: qty,
				Available: product.Stock,
			})
			continue
		}

		items = append(items, models.OrderItem{
			ProductID: id,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  qty,
			Image:     product.PrimaryImage(),
		})
	}

	return items, short
}

func validateBillingAddress(addr models.BillingAddress) *utils.ValidationErrors {
	ve := &utils.ValidationErrors{}
	ve.Require("billing_address.full_name", addr.FullName)
	ve.Require("billing_address.phone", addr.Phone)
	ve.Require("billing_address.address_line", addr.AddressLine)
	ve.Require("billing_address.city", addr.City)
	if ve.Any() {
		return ve
	}
	return nil
}

// CreateOrder converts the submitted cart snapshot into an order. Every
// line is re-priced against the live product and the total computed
// server side; stock is checked and decremented.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if len(req.Items) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "order must contain at least one item")
	}

	if ve := validateBillingAddress(req.BillingAddress); ve != nil {
		return ve
	}

	ids := make([]bson.ObjectID, 0, len(req.Items))
	for _, line := range req.Items {
		if id, err := bson.ObjectIDFromHex(line.ProductID); err == nil {
			ids = append(ids, id)
		} else {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id: "+line.ProductID)
		}
	}

	found, err := database.FindMany[models.Product](c.Context(),
		h.db.Collection(database.ColProducts),
		bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return err
	}

	products := make(map[bson.ObjectID]*models.Product, len(found))
	for i := range found {
		products[found[i].ID] = &found[i]
	}

	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return fiber.NewError(fiber.StatusBadRequest, "product not found: "+id.Hex())
		}
	}

	items, short := buildOrderItems(products, req.Items)
	if len(short) > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "insufficient stock",
			"details": short,
		})
	}

	order := models.Order{
		UserID:         userID,
		Items:          items,
		TotalAmount:    models.ComputeTotal(items),
		Status:         models.OrderStatusPending,
		BillingAddress: req.BillingAddress,
		Notes:          req.Notes,
		PlacedAt:       time.Now().UTC(),
	}
	order.Stamp()

	// order_number carries a unique index; regenerate on the rare collision.
	var insertErr error
	for attempt := 0; attempt < 3; attempt++ {
		order.OrderNumber = newOrderNumber()
		insertErr = database.InsertOne(c.Context(), h.orders(), &order)
		if insertErr != database.ErrDuplicate {
			break
		}
	}
	if insertErr != nil {
		return insertErr
	}

	for _, item := range order.Items {
		_, _ = h.db.Collection(database.ColProducts).UpdateOne(c.Context(),
			bson.D{{Key: "_id", Value: item.ProductID}},
			bson.D{{Key: "$inc", Value: bson.D{{Key: "stock", Value: -item.Quantity}}}})
	}

	_, _ = h.db.Collection(database.ColCarts).UpdateOne(c.Context(),
		bson.D{{Key: "user_id", Value: userID}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "items", Value: []models.CartItem{}}}}})

	go h.email.NotifyOrderConfirmation(h.customerEmail(userID, order.BillingAddress), &order)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": order})
}

// ListOrders returns the authenticated user's orders, newest first.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	filter := bson.D{{Key: "user_id", Value: userID}}

	total, err := database.Count(c.Context(), h.orders(), filter)
	if err != nil {
		return err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "placed_at", Value: -1}}).
		SetSkip(int64(pg.Offset)).
		SetLimit(int64(pg.Limit))

	orders, err := database.FindMany[models.Order](c.Context(), h.orders(), filter, opts)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       orders,
		"pagination": pg.Envelope(total),
	})
}

// GetOrder returns one of the authenticated user's orders.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	order, err := database.FindOne[models.Order](c.Context(), h.orders(),
		bson.D{{Key: "_id", Value: id}, {Key: "user_id", Value: userID}})
	if err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// CancelOrder cancels the user's own order while it is still pending or
// processing; anything later returns 400. Stock is restored.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	order, err := database.FindOne[models.Order](c.Context(), h.orders(),
		bson.D{{Key: "_id", Value: id}, {Key: "user_id", Value: userID}})
	if err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	if !order.Cancellable() {
		return fiber.NewError(fiber.StatusBadRequest, "order can no longer be cancelled")
	}

	if err := database.UpdateByID(c.Context(), h.orders(), order.ID, bson.D{
		{Key: "status", Value: models.OrderStatusCancelled},
		{Key: "updated_at", Value: time.Now().UTC()},
	}); err != nil {
		return err
	}

	for _, item := range order.Items {
		_, _ = h.db.Collection(database.ColProducts).UpdateOne(c.Context(),
			bson.D{{Key: "_id", Value: item.ProductID}},
			bson.D{{Key: "$inc", Value: bson.D{{Key: "stock", Value: item.Quantity}}}})
	}

	order.Status = models.OrderStatusCancelled
	go h.email.NotifyOrderStatus(h.customerEmail(userID, order.BillingAddress), order)

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// customerEmail prefers the billing address email, falling back to the
// account email. Called from notification goroutines, so it uses its own
// context.
func (h *OrderHandler) customerEmail(userID bson.ObjectID, addr models.BillingAddress) string {
	if addr.Email != "" {
		return addr.Email
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	user, err := database.FindOne[models.User](ctx, h.db.Collection(database.ColUsers),
		bson.D{{Key: "_id", Value: userID}})
	if err != nil {
		return ""
	}
	return user.Email
}

var newOrderNumber = generateOrderNumber

func generateOrderNumber() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		n = big.NewInt(time.Now().UnixNano() % 1000000)
	}
	return fmt.Sprintf("RST-%s-%06d", time.Now().UTC().Format("20060102"), n.Int64())
}
