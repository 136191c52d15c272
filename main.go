package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tournament-hosting-system/handlers"
	"tournament-hosting-system/middleware"
	"tournament-hosting-system/models"
	"tournament-hosting-system/services"
	pgstore "tournament-hosting-system/storage/postgres"
	"tournament-hosting-system/utils"
	"tournament-hosting-system/workers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB
	})

	app.Use(middleware.GatewayAuth())

	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigin,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-User-Email",
		AllowCredentials: true,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Tournament{},
		&models.Registration{},
		&models.User{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	r2Ready, err := utils.InitR2()
	if err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}
	if !r2Ready {
		log.Println("⚠️  R2 not configured — tournament images stored in ./uploads")
		if err := utils.EnsureUploadDir(); err != nil {
			log.Fatal("failed to ensure upload dir:", err)
		}
	}

	store := pgstore.New(db)
	tournamentService := services.NewTournamentService(store)
	userService := services.NewUserService(store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if authServiceURL := os.Getenv("AUTH_SERVICE_URL"); authServiceURL != "" {
		syncWorker := workers.NewUserSyncWorker(store, authServiceURL, os.Getenv("AUTH_SERVICE_TOKEN"))
		syncWorker.Start(ctx)
	} else {
		log.Println("⚠️  AUTH_SERVICE_URL not set — user sync worker disabled")
	}

	tournamentService.StartRosterAudit()

	handlers.SetupTournamentRoutes(app, tournamentService, store)
	handlers.SetupUserRoutes(app, userService, store)

	app.Static("/uploads", "./uploads")

	// Health check
	app.Get("/", func(c *fiber.Ctx) error {
		status := "healthy"
		database := "connected"
		if err := store.Ping(c.Context()); err != nil {
			status = "degraded"
			database = "disconnected"
		}
		return c.JSON(fiber.Map{
			"message":   "Tournament Hosting API is running! 🎮",
			"version":   "2.0.0",
			"status":    status,
			"database":  database,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
