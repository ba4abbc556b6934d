package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"billing-aggregation-backend/internal/config"
	"billing-aggregation-backend/internal/directory"
	handler "billing-aggregation-backend/internal/handlers"
	"billing-aggregation-backend/internal/repository"
	enrichmentsvc "billing-aggregation-backend/internal/services/enrichment"
	generationsvc "billing-aggregation-backend/internal/services/generation"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, dir directory.Client, cfg config.Config, logger *zap.Logger) {
	billRepo := repository.NewBillRepository(db)
	runRepo := repository.NewGenerationRunRepository(db)

	generationService := generationsvc.NewService(billRepo, runRepo, dir, logger)
	enrichmentService := enrichmentsvc.NewService(billRepo, dir, logger, cfg.EnrichConcurrency)

	billingHandler := handler.NewBillingHandler(
		billRepo,
		runRepo,
		generationService,
		enrichmentService,
		logger,
		cfg.EnrichTimeout,
	)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Bill read API
	bills := api.Group("/bills")
	bills.GET("", billingHandler.ListBills)
	bills.GET("/:id", billingHandler.GetEnrichedBill)

	// Generation pass trigger and status
	billing := api.Group("/billing")
	billing.POST("/runs", billingHandler.RunGeneration)
	billing.GET("/runs/:id", billingHandler.GetGenerationRun)
}
