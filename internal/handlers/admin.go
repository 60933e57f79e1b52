package handlers

import (
	"context"
	"strings"
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

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db    *mongo.Database
	email *services.EmailService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *mongo.Database, email *services.EmailService) *AdminHandler {
	return &AdminHandler{db: db, email: email}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	ctx := c.Context()

	totalUsers, err := database.Count(ctx, h.db.Collection(database.ColUsers), bson.D{})
	if err != nil {
		return err
	}

	totalProducts, err := database.Count(ctx, h.db.Collection(database.ColProducts), bson.D{})
	if err != nil {
		return err
	}

	totalOrders, err := database.Count(ctx, h.db.Collection(database.ColOrders), bson.D{})
	if err != nil {
		return err
	}

	// Orders grouped by status.
	cursor, err := h.db.Collection(database.ColOrders).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	ordersByStatus := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return err
		}
		ordersByStatus[row.Status] = row.Count
	}
	if err := cursor.Err(); err != nil {
		return err
	}

	// Revenue over non-cancelled orders.
	revCursor, err := h.db.Collection(database.ColOrders).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: bson.D{{Key: "$ne", Value: models.OrderStatusCancelled}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$total_amount"}}},
		}}},
	})
	if err != nil {
		return err
	}
	defer revCursor.Close(ctx)

	var totalRevenue float64
	if revCursor.Next(ctx) {
		var row struct {
			Total float64 `bson:"total"`
		}
		if err := revCursor.Decode(&row); err != nil {
			return err
		}
		totalRevenue = row.Total
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":      totalUsers,
			"total_products":   totalProducts,
			"total_orders":     totalOrders,
			"total_revenue":    totalRevenue,
			"orders_by_status": ordersByStatus,
		},
	})
}

// ListAllUsers returns all registered users with pagination and search.
func (h *AdminHandler) ListAllUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	filter := bson.D{}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: bson.D{{Key: "$regex", Value: search}, {Key: "$options", Value: "i"}}}},
			bson.D{{Key: "email", Value: bson.D{{Key: "$regex", Value: search}, {Key: "$options", Value: "i"}}}},
		}})
	}

	total, err := database.Count(c.Context(), h.db.Collection(database.ColUsers), filter)
	if err != nil {
		return err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(pg.Offset)).
		SetLimit(int64(pg.Limit))

	users, err := database.FindMany[models.User](c.Context(), h.db.Collection(database.ColUsers), filter, opts)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       users,
		"pagination": pg.Envelope(total),
	})
}

type adminUpdateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive *bool  `json:"is_active"`
}

// UpdateUser lets an admin change a user's name, email, role, or active flag.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req adminUpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	fields := bson.D{{Key: "updated_at", Value: time.Now().UTC()}}
	if req.Name != "" {
		fields = append(fields, bson.E{Key: "name", Value: req.Name})
	}
	if req.Email != "" {
		if !utils.ValidEmail(req.Email) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid email")
		}
		fields = append(fields, bson.E{Key: "email", Value: strings.ToLower(strings.TrimSpace(req.Email))})
	}
	if req.Role != "" {
		if !models.ValidRole(req.Role) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid role")
		}
		fields = append(fields, bson.E{Key: "role", Value: req.Role})
	}
	if req.IsActive != nil {
		fields = append(fields, bson.E{Key: "is_active", Value: *req.IsActive})
	}

	if err := database.UpdateByID(c.Context(), h.db.Collection(database.ColUsers), id, fields); err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		if err == database.ErrDuplicate {
			return fiber.NewError(fiber.StatusBadRequest, "Email already registered")
		}
		return err
	}

	user, err := database.FindOne[models.User](c.Context(), h.db.Collection(database.ColUsers),
		bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": user})
}

// DeleteUser removes a user account. Admins cannot delete themselves.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if current, ok := middleware.GetCurrentUserID(c); ok && current == id {
		return fiber.NewError(fiber.StatusBadRequest, "cannot delete your own account")
	}

	if err := database.DeleteByID(c.Context(), h.db.Collection(database.ColUsers), id); err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListAllOrders returns all orders with pagination, status filter, and search.
func (h *AdminHandler) ListAllOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	filter := bson.D{}

	if status := c.Query("status"); status != "" {
		filter = append(filter, bson.E{Key: "status", Value: status})
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "order_number", Value: bson.D{{Key: "$regex", Value: search}, {Key: "$options", Value: "i"}}}},
			bson.D{{Key: "billing_address.full_name", Value: bson.D{{Key: "$regex", Value: search}, {Key: "$options", Value: "i"}}}},
		}})
	}

	total, err := database.Count(c.Context(), h.db.Collection(database.ColOrders), filter)
	if err != nil {
		return err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "placed_at", Value: -1}}).
		SetSkip(int64(pg.Offset)).
		SetLimit(int64(pg.Limit))

	orders, err := database.FindMany[models.Order](c.Context(), h.db.Collection(database.ColOrders), filter, opts)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       orders,
		"pagination": pg.Envelope(total),
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus sets an order to any valid status value. Only enum
// membership is checked; there is no transition graph.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := bson.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if !models.ValidOrderStatus(req.Status) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid status")
	}

	order, err := database.FindOne[models.Order](c.Context(), h.db.Collection(database.ColOrders),
		bson.D{{Key: "_id", Value: id}})
	if err != nil {
		if err == database.ErrNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	if err := database.UpdateByID(c.Context(), h.db.Collection(database.ColOrders), id, bson.D{
		{Key: "status", Value: req.Status},
		{Key: "updated_at", Value: time.Now().UTC()},
	}); err != nil {
		return err
	}

	order.Status = req.Status
	go func() {
		email := order.BillingAddress.Email
		if email == "" {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if user, err := database.FindOne[models.User](ctx, h.db.Collection(database.ColUsers),
				bson.D{{Key: "_id", Value: order.UserID}}); err == nil {
				email = user.Email
			}
		}
		h.email.NotifyOrderStatus(email, order)
	}()

	return c.JSON(fiber.Map{"success": true, "data": order})
}
