package routes

import (
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/reset-corp/reset-backend/internal/config"
	"github.com/reset-corp/reset-backend/internal/handlers"
	"github.com/reset-corp/reset-backend/internal/middleware"
	"github.com/reset-corp/reset-backend/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *mongo.Database, cfg *config.Config, email *services.EmailService, images *services.ImageStore) {
	authHandler := handlers.NewAuthHandler(db, cfg)
	resetHandler := handlers.NewPasswordResetHandler(db, cfg, email)
	productHandler := handlers.NewProductHandler(db, images)
	categoryHandler := handlers.NewCategoryHandler(db)
	cartHandler := handlers.NewCartHandler(db)
	orderHandler := handlers.NewOrderHandler(db, email)
	adminHandler := handlers.NewAdminHandler(db, email)
	serviceHandler := handlers.NewServiceHandler(db)
	uploadHandler := handlers.NewUploadHandler(images)
	emailHandler := handlers.NewEmailHandler(email)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/forgot-password", resetHandler.ForgotPassword)
	auth.Post("/reset-password", resetHandler.ResetPassword)

	// Public catalog
	api.Get("/products", productHandler.ListProducts)
	api.Get("/products/:id", productHandler.GetProduct)
	api.Get("/categories", categoryHandler.ListCategories)
	api.Get("/categories/:id", categoryHandler.GetCategory)

	// Public services and contact forms
	api.Get("/services", serviceHandler.ListServices)
	api.Get("/services/:id", serviceHandler.GetService)
	api.Post("/emails/contact", emailHandler.Contact)
	api.Post("/emails/quote", emailHandler.Quote)

	// Authenticated routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Get("/auth/profile", authHandler.GetProfile)
	protected.Put("/auth/profile", authHandler.UpdateProfile)
	protected.Put("/auth/password", authHandler.ChangePassword)

	protected.Get("/cart", cartHandler.GetCart)
	protected.Post("/cart", cartHandler.AddToCart)
	protected.Post("/cart/clear", cartHandler.ClearCart)
	protected.Put("/cart/:productId", cartHandler.UpdateCartItem)
	protected.Delete("/cart/:productId", cartHandler.RemoveCartItem)

	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Put("/orders/:id/cancel", orderHandler.CancelOrder)

	// Admin routes
	admin := api.Group("/admin", middleware.AuthMiddleware(cfg), middleware.AdminOnly())

	admin.Get("/stats", adminHandler.DashboardStats)
	admin.Get("/users", adminHandler.ListAllUsers)
	admin.Put("/users/:id", adminHandler.UpdateUser)
	admin.Delete("/users/:id", adminHandler.DeleteUser)
	admin.Get("/orders", adminHandler.ListAllOrders)
	admin.Put("/orders/:id/status", adminHandler.UpdateOrderStatus)
	admin.Get("/products", productHandler.ListProducts)
	admin.Get("/services", serviceHandler.ListServices)

	adminGate := []fiber.Handler{middleware.AuthMiddleware(cfg), middleware.AdminOnly()}

	api.Post("/products", append(adminGate, productHandler.CreateProduct)...)
	api.Put("/products/:id", append(adminGate, productHandler.UpdateProduct)...)
	api.Delete("/products/:id", append(adminGate, productHandler.DeleteProduct)...)

	api.Post("/categories", append(adminGate, categoryHandler.CreateCategory)...)
	api.Put("/categories/:id", append(adminGate, categoryHandler.UpdateCategory)...)
	api.Delete("/categories/:id", append(adminGate, categoryHandler.DeleteCategory)...)

	api.Post("/services", append(adminGate, serviceHandler.CreateService)...)
	api.Put("/services/:id", append(adminGate, serviceHandler.UpdateService)...)
	api.Delete("/services/:id", append(adminGate, serviceHandler.DeleteService)...)

	api.Post("/upload/image", append(adminGate, uploadHandler.UploadImage)...)
	api.Delete("/upload/image/:publicId", append(adminGate, uploadHandler.DeleteImage)...)
}
