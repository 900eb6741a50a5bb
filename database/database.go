package database

import (
	"fmt"
	"log"
	"os"

	"coursepilot/models"
	"coursepilot/models/pipeline"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DbInstance struct holds the database connection instance
type DbInstance struct {
	Db *gorm.DB
}

// Database is the global database instance
var Database DbInstance

// ConnectDb establishes a connection to PostgreSQL
func ConnectDb() {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		os.Exit(2)
	}

	// Set up connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(0)

	runMigrations(db)

	Database = DbInstance{Db: db}
}

// runMigrations performs database migrations
func runMigrations(db *gorm.DB) {
	log.Println("Running Migrations...")

	err := db.AutoMigrate(Models()...)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations completed successfully.")
}

// Models lists every persisted type for migration
func Models() []interface{} {
	return []interface{}{
		&models.Organization{},
		&models.User{},
		&models.Permission{},
		&models.Member{},
		&models.Department{},
		&models.Team{},
		&models.Course{},
		&models.Project{},
		&models.PhaseState{},
		&models.Enrollment{},
		&models.AuditLog{},
		&pipeline.ContentRecord{},
		&pipeline.ContentItem{},
		&pipeline.AnalysisRecord{},
		&pipeline.DesignRecord{},
		&pipeline.GenerationRecord{},
		&pipeline.ImplementationRecord{},
		&pipeline.EnrollmentRule{},
		&pipeline.AnalyticsRecord{},
		&pipeline.GovernanceRecord{},
	}
}
