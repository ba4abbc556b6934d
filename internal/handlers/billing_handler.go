package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"billing-aggregation-backend/internal/directory"
	"billing-aggregation-backend/internal/repository"
	"billing-aggregation-backend/internal/services/enrichment"
	"billing-aggregation-backend/internal/services/generation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BillingHandler struct {
	bills         *repository.BillRepository
	runs          *repository.GenerationRunRepository
	generation    *generation.Service
	enrichment    *enrichment.Service
	logger        *zap.Logger
	enrichTimeout time.Duration
}

func NewBillingHandler(
	bills *repository.BillRepository,
	runs *repository.GenerationRunRepository,
	generationSvc *generation.Service,
	enrichmentSvc *enrichment.Service,
	logger *zap.Logger,
	enrichTimeout time.Duration,
) *BillingHandler {
	return &BillingHandler{
		bills:         bills,
		runs:          runs,
		generation:    generationSvc,
		enrichment:    enrichmentSvc,
		logger:        logger,
		enrichTimeout: enrichTimeout,
	}
}

// GetEnrichedBill serves one bill with live customer and product data
// attached. 404 means the bill itself does not exist; a bill that exists but
// could not be fully enriched is a 200 with a non-empty failures list. The
// two are never collapsed.
func (h *BillingHandler) GetEnrichedBill(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bill ID"})
		return
	}

	ctx := c.Request.Context()
	if h.enrichTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.enrichTimeout)
		defer cancel()
	}

	bill, err := h.enrichment.GetEnrichedBill(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBillNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "bill not found"})
			return
		}
		h.logger.Error("get enriched bill failed", zap.String("bill_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load bill"})
		return
	}

	c.JSON(http.StatusOK, bill)
}

// ListBills serves the stored bills without enrichment.
func (h *BillingHandler) ListBills(c *gin.Context) {
	bills, err := h.bills.ListBills(c.Request.Context())
	if err != nil {
		h.logger.Error("list bills failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bills"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bills": bills})
}

// RunGeneration triggers a generation pass. Deliberately not idempotent:
// every invocation creates a fresh set of bills.
func (h *BillingHandler) RunGeneration(c *gin.Context) {
	run, err := h.generation.Run(c.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		msg := "generation pass failed"
		if errors.Is(err, directory.ErrUnavailable) || errors.Is(err, directory.ErrNotFound) {
			status = http.StatusBadGateway
			msg = "directory services unavailable, nothing was written"
		}
		resp := gin.H{"error": msg}
		if run != nil {
			resp["run_id"] = run.ID.String()
		}
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"run_id":          run.ID.String(),
		"status":          run.Status,
		"bill_count":      run.BillCount,
		"line_item_count": run.LineItemCount,
	})
}

// GetGenerationRun serves the status and counters of one generation pass.
func (h *BillingHandler) GetGenerationRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run ID"})
		return
	}

	run, err := h.runs.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "generation run not found"})
			return
		}
		h.logger.Error("get generation run failed", zap.String("run_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load generation run"})
		return
	}

	c.JSON(http.StatusOK, run)
}
