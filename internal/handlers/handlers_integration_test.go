package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/reset-corp/reset-backend/internal/config"
	"github.com/reset-corp/reset-backend/internal/database"
	"github.com/reset-corp/reset-backend/internal/handlers"
	"github.com/reset-corp/reset-backend/internal/middleware"
	"github.com/reset-corp/reset-backend/internal/models"
	"github.com/reset-corp/reset-backend/internal/routes"
	"github.com/reset-corp/reset-backend/internal/services"
	"github.com/reset-corp/reset-backend/internal/utils"
)

// setupApp builds the full application against a real MongoDB instance.
// Tests are skipped unless MONGO_TEST_URI is set.
func setupApp(t *testing.T) (*fiber.App, *mongo.Database) {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set, skipping integration test")
	}

	cfg := &config.Config{
		AppEnv:       "test",
		JWTSecret:    "integration-test-secret",
		TokenExpires: time.Hour,
	}

	db := database.Connect(uri, "reset_test")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, col := range []string{
		database.ColUsers, database.ColProducts, database.ColCategories,
		database.ColOrders, database.ColCarts, database.ColServices,
		database.ColPasswordResets,
	} {
		_, err := db.Collection(col).DeleteMany(ctx, bson.D{})
		require.NoError(t, err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(cfg)})
	routes.Register(app, db, cfg, services.NewEmailService(cfg), nil)

	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func registerUser(t *testing.T, app *fiber.App, email string) string {
	t.Helper()

	status, out := doJSON(t, app, "POST", "/api/auth/register", "", map[string]any{
		"name":     "Test User",
		"email":    email,
		"password": "password1",
	})
	require.Equal(t, fiber.StatusCreated, status)
	token, _ := out["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func adminToken(t *testing.T, db *mongo.Database, secret string) string {
	t.Helper()

	hash, err := utils.HashPassword("admin-pass")
	require.NoError(t, err)

	admin := models.User{
		Name:         "Admin",
		Email:        fmt.Sprintf("admin-%d@example.com", time.Now().UnixNano()),
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	admin.Stamp()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, database.InsertOne(ctx, db.Collection(database.ColUsers), &admin))

	token, err := utils.GenerateToken(secret, admin.ID, models.RoleAdmin, time.Hour)
	require.NoError(t, err)
	return token
}

func createCategory(t *testing.T, app *fiber.App, admin, name string) string {
	t.Helper()

	status, out := doJSON(t, app, "POST", "/api/categories", admin, map[string]any{"name": name})
	require.Equal(t, fiber.StatusCreated, status)
	data := out["data"].(map[string]any)
	return data["id"].(string)
}

func createProduct(t *testing.T, app *fiber.App, admin, category string, price float64, stock int) string {
	t.Helper()

	status, out := doJSON(t, app, "POST", "/api/products", admin, map[string]any{
		"name":     "Product " + category,
		"price":    price,
		"category": category,
		"stock":    stock,
	})
	require.Equal(t, fiber.StatusCreated, status)
	data := out["data"].(map[string]any)
	return data["id"].(string)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app, _ := setupApp(t)

	registerUser(t, app, "dup@example.com")

	status, out := doJSON(t, app, "POST", "/api/auth/register", "", map[string]any{
		"name":     "Other",
		"email":    "dup@example.com",
		"password": "password2",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Email already registered", out["message"])
}

func TestLoginWrongPassword(t *testing.T) {
	app, _ := setupApp(t)

	registerUser(t, app, "login@example.com")

	status, out := doJSON(t, app, "POST", "/api/auth/login", "", map[string]any{
		"email":    "login@example.com",
		"password": "wrong",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", out["message"])
}

func TestLoginLockout(t *testing.T) {
	app, db := setupApp(t)
	registerUser(t, app, "lockout@example.com")

	badLogin := func() int {
		status, _ := doJSON(t, app, "POST", "/api/auth/login", "", map[string]any{
			"email":    "lockout@example.com",
			"password": "wrong",
		})
		return status
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, fiber.StatusUnauthorized, badLogin(), "attempt %d", i+1)
	}

	// Sixth attempt hits the lock, wrong or right password alike.
	assert.Equal(t, fiber.StatusLocked, badLogin())

	status, _ := doJSON(t, app, "POST", "/api/auth/login", "", map[string]any{
		"email":    "lockout@example.com",
		"password": "password1",
	})
	assert.Equal(t, fiber.StatusLocked, status)

	// Once the lock window has passed the correct password works again.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := db.Collection(database.ColUsers).UpdateOne(ctx,
		bson.D{{Key: "email", Value: "lockout@example.com"}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "lock_until", Value: time.Now().Add(-time.Minute)}}}})
	require.NoError(t, err)

	status, out := doJSON(t, app, "POST", "/api/auth/login", "", map[string]any{
		"email":    "lockout@example.com",
		"password": "password1",
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, out["token"])
}

func TestLoginSuccessResetsFailureCounter(t *testing.T) {
	app, db := setupApp(t)
	registerUser(t, app, "counter@example.com")

	for i := 0; i < 3; i++ {
		status, _ := doJSON(t, app, "POST", "/api/auth/login", "", map[string]any{
			"email":    "counter@example.com",
			"password": "wrong",
		})
		require.Equal(t, fiber.StatusUnauthorized, status)
	}

	status, _ := doJSON(t, app, "POST", "/api/auth/login", "", map[string]any{
		"email":    "counter@example.com",
		"password": "password1",
	})
	require.Equal(t, fiber.StatusOK, status)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	user, err := database.FindOne[models.User](ctx, db.Collection(database.ColUsers),
		bson.D{{Key: "email", Value: "counter@example.com"}})
	require.NoError(t, err)
	assert.Zero(t, user.LoginAttempts)
	assert.Nil(t, user.LockUntil)
}

func TestPasswordResetFlow(t *testing.T) {
	app, db := setupApp(t)
	registerUser(t, app, "reset@example.com")

	status, out := doJSON(t, app, "POST", "/api/auth/forgot-password", "", map[string]any{
		"email": "reset@example.com",
	})
	require.Equal(t, fiber.StatusOK, status)
	token, _ := out["token"].(string)
	require.NotEmpty(t, token)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rec, err := database.FindOne[models.PasswordResetToken](ctx,
		db.Collection(database.ColPasswordResets), bson.D{{Key: "token", Value: token}})
	require.NoError(t, err)

	wrongCode := "000000"
	if rec.Code == wrongCode {
		wrongCode = "111111"
	}
	status, _ = doJSON(t, app, "POST", "/api/auth/reset-password", "", map[string]any{
		"token":        token,
		"code":         wrongCode,
		"new_password": "brand-new-pass",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = doJSON(t, app, "POST", "/api/auth/reset-password", "", map[string]any{
		"token":        token,
		"code":         rec.Code,
		"new_password": "brand-new-pass",
	})
	require.Equal(t, fiber.StatusOK, status)

	status, _ = doJSON(t, app, "POST", "/api/auth/login", "", map[string]any{
		"email":    "reset@example.com",
		"password": "brand-new-pass",
	})
	assert.Equal(t, fiber.StatusOK, status)

	// Tokens are single use.
	status, _ = doJSON(t, app, "POST", "/api/auth/reset-password", "", map[string]any{
		"token":        token,
		"code":         rec.Code,
		"new_password": "another-pass",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestPasswordResetTokenExpiry(t *testing.T) {
	app, db := setupApp(t)
	registerUser(t, app, "expiry@example.com")

	status, out := doJSON(t, app, "POST", "/api/auth/forgot-password", "", map[string]any{
		"email": "expiry@example.com",
	})
	require.Equal(t, fiber.StatusOK, status)
	token := out["token"].(string)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rec, err := database.FindOne[models.PasswordResetToken](ctx,
		db.Collection(database.ColPasswordResets), bson.D{{Key: "token", Value: token}})
	require.NoError(t, err)

	_, err = db.Collection(database.ColPasswordResets).UpdateOne(ctx,
		bson.D{{Key: "token", Value: token}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "expires_at", Value: time.Now().Add(-time.Minute)}}}})
	require.NoError(t, err)

	status, _ = doJSON(t, app, "POST", "/api/auth/reset-password", "", map[string]any{
		"token":        token,
		"code":         rec.Code,
		"new_password": "brand-new-pass",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestForgotPasswordUnknownEmailSameShape(t *testing.T) {
	app, _ := setupApp(t)

	status, out := doJSON(t, app, "POST", "/api/auth/forgot-password", "", map[string]any{
		"email": "ghost@example.com",
	})
	assert.Equal(t, fiber.StatusOK, status)
	token, _ := out["token"].(string)
	assert.NotEmpty(t, token, "response shape must not reveal whether the account exists")
}

func TestCreateProductRequiresCategory(t *testing.T) {
	app, db := setupApp(t)
	admin := adminToken(t, db, "integration-test-secret")

	status, _ := doJSON(t, app, "POST", "/api/products", admin, map[string]any{
		"name":  "No Category",
		"price": 9.99,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestInactiveProductsHiddenFromPublicList(t *testing.T) {
	app, db := setupApp(t)
	admin := adminToken(t, db, "integration-test-secret")

	category := createCategory(t, app, admin, "Visibility")
	createProduct(t, app, admin, category, 10.00, 5)

	status, out := doJSON(t, app, "POST", "/api/products", admin, map[string]any{
		"name":      "Hidden Product",
		"price":     20.00,
		"category":  category,
		"stock":     5,
		"is_active": false,
	})
	require.Equal(t, fiber.StatusCreated, status)

	status, out = doJSON(t, app, "GET", "/api/products", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, out["data"].([]any), 1)

	// Admins see inactive products through the admin listing.
	status, out = doJSON(t, app, "GET", "/api/admin/products", admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, out["data"].([]any), 2)
}

func TestAdminRoutesForbiddenForCustomers(t *testing.T) {
	app, _ := setupApp(t)
	customer := registerUser(t, app, "customer@example.com")

	for _, path := range []string{"/api/admin/users", "/api/admin/orders", "/api/admin/stats"} {
		status, _ := doJSON(t, app, "GET", path, customer, nil)
		assert.Equal(t, fiber.StatusForbidden, status, path)
	}
}

func TestCheckoutComputesTotalServerSide(t *testing.T) {
	app, db := setupApp(t)
	admin := adminToken(t, db, "integration-test-secret")
	customer := registerUser(t, app, "buyer@example.com")

	category := createCategory(t, app, admin, "Checkout")
	p1 := createProduct(t, app, admin, category, 19.99, 10)
	p2 := createProduct(t, app, admin, category, 5.00, 10)

	status, out := doJSON(t, app, "POST", "/api/orders", customer, map[string]any{
		"items": []map[string]any{
			{"product_id": p1, "quantity": 2},
			{"product_id": p2, "quantity": 3},
		},
		"billing_address": map[string]any{
			"full_name":    "Buyer One",
			"phone":        "555-0000",
			"address_line": "1 Main St",
			"city":         "Springfield",
		},
	})
	require.Equal(t, fiber.StatusCreated, status)

	data := out["data"].(map[string]any)
	assert.InDelta(t, 54.98, data["total_amount"].(float64), 0.001)
	assert.Equal(t, models.OrderStatusPending, data["status"])
}

func TestCheckoutRejectsShortStock(t *testing.T) {
	app, db := setupApp(t)
	admin := adminToken(t, db, "integration-test-secret")
	customer := registerUser(t, app, "shortstock@example.com")

	category := createCategory(t, app, admin, "ShortStock")
	p := createProduct(t, app, admin, category, 10.00, 1)

	status, out := doJSON(t, app, "POST", "/api/orders", customer, map[string]any{
		"items": []map[string]any{{"product_id": p, "quantity": 5}},
		"billing_address": map[string]any{
			"full_name":    "Buyer Two",
			"phone":        "555-0001",
			"address_line": "2 Main St",
			"city":         "Springfield",
		},
	})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "insufficient stock", out["message"])
}

func TestCancelOrderRules(t *testing.T) {
	app, db := setupApp(t)
	admin := adminToken(t, db, "integration-test-secret")
	customer := registerUser(t, app, "cancel@example.com")

	category := createCategory(t, app, admin, "Cancel")
	p := createProduct(t, app, admin, category, 10.00, 5)

	placeOrder := func() string {
		status, out := doJSON(t, app, "POST", "/api/orders", customer, map[string]any{
			"items": []map[string]any{{"product_id": p, "quantity": 1}},
			"billing_address": map[string]any{
				"full_name":    "Buyer Three",
				"phone":        "555-0002",
				"address_line": "3 Main St",
				"city":         "Springfield",
			},
		})
		require.Equal(t, fiber.StatusCreated, status)
		return out["data"].(map[string]any)["id"].(string)
	}

	// Pending orders can be cancelled.
	id := placeOrder()
	status, _ := doJSON(t, app, "PUT", "/api/orders/"+id+"/cancel", customer, nil)
	assert.Equal(t, fiber.StatusOK, status)

	// Completed orders cannot.
	id = placeOrder()
	status, _ = doJSON(t, app, "PUT", "/api/admin/orders/"+id+"/status", admin,
		map[string]any{"status": models.OrderStatusCompleted})
	require.Equal(t, fiber.StatusOK, status)

	status, _ = doJSON(t, app, "PUT", "/api/orders/"+id+"/cancel", customer, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestCancelRestoresStock(t *testing.T) {
	app, db := setupApp(t)
	admin := adminToken(t, db, "integration-test-secret")
	customer := registerUser(t, app, "restock@example.com")

	category := createCategory(t, app, admin, "Restock")
	p := createProduct(t, app, admin, category, 10.00, 5)

	status, out := doJSON(t, app, "POST", "/api/orders", customer, map[string]any{
		"items": []map[string]any{{"product_id": p, "quantity": 2}},
		"billing_address": map[string]any{
			"full_name":    "Buyer Four",
			"phone":        "555-0003",
			"address_line": "4 Main St",
			"city":         "Springfield",
		},
	})
	require.Equal(t, fiber.StatusCreated, status)
	orderID := out["data"].(map[string]any)["id"].(string)

	status, out = doJSON(t, app, "GET", "/api/products/"+p, "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 3, out["data"].(map[string]any)["stock"])

	status, _ = doJSON(t, app, "PUT", "/api/orders/"+orderID+"/cancel", customer, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, out = doJSON(t, app, "GET", "/api/products/"+p, "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 5, out["data"].(map[string]any)["stock"])
}

func TestCartFlow(t *testing.T) {
	app, db := setupApp(t)
	admin := adminToken(t, db, "integration-test-secret")
	customer := registerUser(t, app, "cart@example.com")

	category := createCategory(t, app, admin, "Cart")
	p := createProduct(t, app, admin, category, 7.50, 10)

	status, _ := doJSON(t, app, "POST", "/api/cart", customer, map[string]any{
		"product_id": p, "quantity": 2,
	})
	require.Equal(t, fiber.StatusOK, status)

	// Adding the same product merges quantities.
	status, out := doJSON(t, app, "POST", "/api/cart", customer, map[string]any{
		"product_id": p, "quantity": 1,
	})
	require.Equal(t, fiber.StatusOK, status)
	items := out["data"].(map[string]any)["items"].([]any)
	require.Len(t, items, 1)
	assert.EqualValues(t, 3, items[0].(map[string]any)["quantity"])
	assert.InDelta(t, 22.5, out["subtotal"].(float64), 0.001)

	// Updating a product that is not in the cart is a 404.
	status, _ = doJSON(t, app, "PUT", "/api/cart/"+bson.NewObjectID().Hex(), customer,
		map[string]any{"quantity": 2})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = doJSON(t, app, "POST", "/api/cart/clear", customer, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, out = doJSON(t, app, "GET", "/api/cart", customer, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, out["data"].(map[string]any)["items"])
}

func TestCheckoutRetriesOrderNumberCollision(t *testing.T) {
	app, db := setupApp(t)
	admin := adminToken(t, db, "integration-test-secret")
	customer := registerUser(t, app, "collide@example.com")

	category := createCategory(t, app, admin, "Collide")
	p := createProduct(t, app, admin, category, 10.00, 10)

	placeOrder := func() map[string]any {
		status, out := doJSON(t, app, "POST", "/api/orders", customer, map[string]any{
			"items": []map[string]any{{"product_id": p, "quantity": 1}},
			"billing_address": map[string]any{
				"full_name":    "Buyer Five",
				"phone":        "555-0004",
				"address_line": "5 Main St",
				"city":         "Springfield",
			},
		})
		require.Equal(t, fiber.StatusCreated, status)
		return out["data"].(map[string]any)
	}

	taken := placeOrder()["order_number"].(string)

	calls := 0
	var orig func() string
	orig = handlers.SetOrderNumberGenerator(func() string {
		calls++
		if calls == 1 {
			return taken
		}
		return orig()
	})
	defer handlers.SetOrderNumberGenerator(orig)

	second := placeOrder()
	assert.NotEqual(t, taken, second["order_number"])
	assert.Equal(t, 2, calls)
}
