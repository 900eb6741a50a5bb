package main

import (
	"coursepilot/config"
	"coursepilot/database"
	analyticsRoutes "coursepilot/routers/analyticsRoutes"
	authRoutes "coursepilot/routers/authRoutes"
	enrollmentRoutes "coursepilot/routers/enrollmentRoutes"
	governanceRoutes "coursepilot/routers/governanceRoutes"
	projectRoutes "coursepilot/routers/projectRoutes"
	"coursepilot/services"
	"coursepilot/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"log"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	authRoutes.SetupAuthRoutes(app)
	projectRoutes.SetupProjectRoutes(app)
	enrollmentRoutes.SetupEnrollmentRoutes(app)
	analyticsRoutes.SetupAnalyticsRoutes(app)
	governanceRoutes.SetupGovernanceRoutes(app)

	db := database.Database.Db
	analytics := services.NewAnalyticsService(db, services.NewGormEnrollmentStore(db), services.NewRosterService(db))
	utils.StartAnalyticsScheduler(analytics)
	utils.StartAuditRetentionScheduler()

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
