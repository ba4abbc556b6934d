package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"billing-aggregation-backend/internal/directory"
	"billing-aggregation-backend/internal/models"
	"billing-aggregation-backend/internal/repository"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Service runs generation passes: one bill per customer, one line item per
// product, with each line item's unit price snapshotted from the product list
// fetched at the start of the pass.
//
// The write path assumes a single writer; concurrent passes are unsupported
// and would only produce more duplicate bills, so no locking is done here.
type Service struct {
	bills      *repository.BillRepository
	runs       *repository.GenerationRunRepository
	dir        directory.Client
	logger     *zap.Logger
	now        func() time.Time
	quantityFn func() int
}

func NewService(
	bills *repository.BillRepository,
	runs *repository.GenerationRunRepository,
	dir directory.Client,
	logger *zap.Logger,
) *Service {
	return &Service{
		bills:      bills,
		runs:       runs,
		dir:        dir,
		logger:     logger,
		now:        time.Now,
		quantityFn: randomQuantity,
	}
}

// randomQuantity draws a demo quantity uniformly from [1, 10].
func randomQuantity() int {
	return 1 + rand.Intn(10)
}

// Run executes one generation pass. It is deliberately not idempotent:
// invoking it twice creates duplicate bills for every customer.
//
// Both directory lists are fetched before anything is written, so a directory
// failure aborts with nothing persisted beyond the failed run record. Write
// failures mid-loop surface to the caller and leave prior writes in place;
// there is no rollback.
func (s *Service) Run(ctx context.Context) (*models.GenerationRun, error) {
	startedAt := s.now()

	run, err := s.runs.CreateRun(ctx, startedAt)
	if err != nil {
		return nil, err
	}

	// 1. Fetch both lists up front: two remote calls total, and one price
	// snapshot shared by every line item in the pass.
	customers, err := s.dir.ListCustomers(ctx)
	if err != nil {
		s.failRun(ctx, run, fmt.Sprintf("list customers: %v", err))
		return run, fmt.Errorf("list customers: %w", err)
	}
	products, err := s.dir.ListProducts(ctx)
	if err != nil {
		s.failRun(ctx, run, fmt.Sprintf("list products: %v", err))
		return run, fmt.Errorf("list products: %w", err)
	}

	run.CustomerCount = len(customers)
	run.ProductCount = len(products)

	s.logger.Info("generation pass started",
		zap.String("run_id", run.ID.String()),
		zap.Int("customers", len(customers)),
		zap.Int("products", len(products)),
	)

	// 2. One bill per customer, every bill stamped with the pass start time.
	for _, customer := range customers {
		bill, err := s.bills.CreateBill(ctx, customer.ID, startedAt)
		if err != nil {
			s.failRun(ctx, run, fmt.Sprintf("create bill for customer %s: %v", customer.ID, err))
			return run, err
		}
		run.BillCount++

		// 3. One line item per product, price fixed to the step-1 snapshot.
		for _, product := range products {
			_, err := s.bills.AddLineItem(ctx, bill.ID, product.ID, product.Price, s.quantityFn())
			if err != nil {
				s.failRun(ctx, run, fmt.Sprintf("add line item for product %s on bill %s: %v", product.ID, bill.ID, err))
				return run, err
			}
			run.LineItemCount++
		}
	}

	completedAt := s.now()
	run.Status = models.RunStatusCompleted
	run.CompletedAt = &completedAt
	if err := s.runs.UpdateRun(ctx, run); err != nil {
		return run, err
	}

	s.logger.Info("generation pass completed",
		zap.String("run_id", run.ID.String()),
		zap.Int("bills", run.BillCount),
		zap.Int("line_items", run.LineItemCount),
	)
	return run, nil
}

// failRun marks the run failed with a reason. Bills written before the
// failure stay in the store; the run record is how operators find out the
// pass was cut short.
func (s *Service) failRun(ctx context.Context, run *models.GenerationRun, reason string) {
	completedAt := s.now()
	run.Status = models.RunStatusFailed
	run.CompletedAt = &completedAt
	if details, err := json.Marshal(map[string]string{"error": reason}); err == nil {
		run.Details = datatypes.JSON(details)
	}
	if err := s.runs.UpdateRun(ctx, run); err != nil {
		s.logger.Error("failed to record generation run failure",
			zap.String("run_id", run.ID.String()),
			zap.Error(err),
		)
	}
	s.logger.Warn("generation pass failed",
		zap.String("run_id", run.ID.String()),
		zap.String("reason", reason),
	)
}
