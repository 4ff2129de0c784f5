package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"forgood-mission-system/ai"
	"forgood-mission-system/chain"
	"forgood-mission-system/handlers"
	"forgood-mission-system/models"
	"forgood-mission-system/services"
	"forgood-mission-system/utils"
	"forgood-mission-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 60 * 1024 * 1024, // proof uploads capped at 50MB plus headroom
	})
	app.Use(logger.New())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Mission{},
		&models.Proof{},
		&models.BoostRecord{},
		&models.UserProfile{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.EnsureUploadDir(); err != nil {
		log.Fatal("failed to ensure upload dir:", err)
	}

	oracle := ai.NewClientFromEnv()
	settlement := chain.NewClientFromEnv()

	missionService := services.NewMissionService(db, oracle, settlement)
	profileService := services.NewProfileService(db)

	if oracle.Mode == ai.ModeTest {
		if err := services.SeedIfEmpty(db); err != nil {
			log.Fatal("failed to seed demo data:", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	treasuryPoller := workers.NewTreasuryPoller(settlement)
	go treasuryPoller.Run(ctx, 60*time.Second)

	missionService.StartAutoPostScheduler(ctx)

	handlers.SetupMissionRoutes(app, missionService)
	handlers.SetupProfileRoutes(app, profileService)
	handlers.SetupUploadRoutes(app)
	handlers.SetupSystemRoutes(app, db, missionService, oracle, treasuryPoller)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)
	if oracle.Available() {
		log.Printf("✅ AI oracle ready (mode=%s)", oracle.Mode)
	} else {
		log.Println("⚠️  AI oracle not configured — evaluation and verification require manual judgments")
	}
	if settlement.Enabled() {
		log.Println("✅ On-chain settlement enabled")
	} else {
		log.Println("⚠️  On-chain settlement disabled — rewards use mock transaction references")
	}

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
