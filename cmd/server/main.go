package main

import (
	"log"
	"time"

	"billing-aggregation-backend/internal/config"
	"billing-aggregation-backend/internal/directory"
	"billing-aggregation-backend/internal/models"
	"billing-aggregation-backend/internal/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	cfg := config.Load()

	logger := newLogger(cfg.Environment)
	defer logger.Sync()

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}

	err = db.AutoMigrate(
		&models.Bill{},
		&models.LineItem{},
		&models.GenerationRun{},
	)
	if err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	dir := directory.NewHTTPClient(cfg.CustomerServiceURL, cfg.ProductServiceURL, cfg.DirectoryTimeout)

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, dir, cfg, logger)

	logger.Info("server listening",
		zap.String("port", cfg.Port),
		zap.String("customer_service", cfg.CustomerServiceURL),
		zap.String("product_service", cfg.ProductServiceURL),
	)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(environment string) *zap.Logger {
	if environment == "production" {
		return zap.Must(zap.NewProduction())
	}
	return zap.Must(zap.NewDevelopment())
}
