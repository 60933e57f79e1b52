package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/reset-corp/reset-backend/internal/config"
	"github.com/reset-corp/reset-backend/internal/database"
	"github.com/reset-corp/reset-backend/internal/middleware"
	"github.com/reset-corp/reset-backend/internal/routes"
	"github.com/reset-corp/reset-backend/internal/services"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.MongoURI, cfg.MongoDB)

	email := services.NewEmailService(cfg)

	images, err := services.NewImageStore(cfg)
	if err != nil {
		log.Fatalf("object storage init failed: %v", err)
	}
	if images != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := images.EnsureBucket(ctx); err != nil {
			log.Printf("warning: ensure bucket failed: %v", err)
		}
		cancel()
	} else {
		log.Println("object storage not configured, image uploads disabled")
	}

	app := fiber.New(fiber.Config{
		AppName:      "RESET Backend",
		ErrorHandler: middleware.ErrorHandler(cfg),
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())
	app.Use(middleware.RateLimiter(cfg))

	routes.Register(app, db, cfg, email, images)

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
