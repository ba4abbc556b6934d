package enrichment

import (
	"context"
	"errors"
	"sync"
	"time"

	"billing-aggregation-backend/internal/directory"
	"billing-aggregation-backend/internal/models"
	"billing-aggregation-backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultConcurrency = 4

// Failure reasons recorded when a remote fetch cannot populate a transient
// field.
const (
	ReasonNotFound    = "not_found"
	ReasonUnavailable = "unavailable"
)

// FetchFailure records one remote lookup that could not be completed during
// enrichment. The stored bill is still servable; this is how the caller
// learns which live fields are missing and why.
type FetchFailure struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// EnrichedLineItem is a line item plus the product's live directory record.
// UnitPrice is what was charged; Product.Price is what it costs now. The two
// are deliberately kept side by side and never merged.
type EnrichedLineItem struct {
	models.LineItem
	Product *directory.Product `json:"product,omitempty"`
}

// EnrichedBill is the transient read model: the stored bill composed with
// whatever live directory data could be fetched. It is assembled per read and
// never persisted, so stored state cannot be polluted by a degraded
// directory.
type EnrichedBill struct {
	ID          uuid.UUID           `json:"id"`
	BillingDate time.Time           `json:"billing_date"`
	CustomerID  string              `json:"customer_id"`
	Customer    *directory.Customer `json:"customer,omitempty"`
	LineItems   []EnrichedLineItem  `json:"line_items"`
	Failures    []FetchFailure      `json:"failures"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Service builds enriched bill views.
type Service struct {
	bills       *repository.BillRepository
	dir         directory.Client
	logger      *zap.Logger
	concurrency int
}

func NewService(bills *repository.BillRepository, dir directory.Client, logger *zap.Logger, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{
		bills:       bills,
		dir:         dir,
		logger:      logger,
		concurrency: concurrency,
	}
}

// GetEnrichedBill loads a stored bill and attaches live customer and product
// data. A missing bill aborts with repository.ErrBillNotFound before any
// remote call is made. Remote failures never abort the read: each one leaves
// its transient field unset and is recorded in Failures, so a bill stays
// servable while the directories are degraded. The caller's context deadline
// bounds the whole operation; fetches cut off by the deadline are recorded as
// unavailable.
func (s *Service) GetEnrichedBill(ctx context.Context, id uuid.UUID) (*EnrichedBill, error) {
	bill, err := s.bills.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}

	// Distinct product ids in first-reference order: one remote call per
	// referenced product, and a stable order for the failure list.
	var productIDs []string
	seen := make(map[string]bool, len(bill.LineItems))
	for _, item := range bill.LineItems {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			productIDs = append(productIDs, item.ProductID)
		}
	}

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		customer    *directory.Customer
		customerErr error
		products    = make(map[string]*directory.Product, len(productIDs))
		productErrs = make(map[string]error)
	)

	// The customer fetch is independent of every product fetch and runs
	// alongside them, outside the product semaphore.
	wg.Add(1)
	go func() {
		defer wg.Done()
		c, err := s.dir.GetCustomer(ctx, bill.CustomerID)
		customer, customerErr = c, err
	}()

	sem := make(chan struct{}, s.concurrency)
	for _, productID := range productIDs {
		wg.Add(1)
		go func(productID string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				productErrs[productID] = directory.ErrUnavailable
				mu.Unlock()
				return
			}
			p, err := s.dir.GetProduct(ctx, productID)
			mu.Lock()
			if err != nil {
				productErrs[productID] = err
			} else {
				products[productID] = p
			}
			mu.Unlock()
		}(productID)
	}
	wg.Wait()

	// Join results back by id, never by completion order.
	view := &EnrichedBill{
		ID:          bill.ID,
		BillingDate: bill.BillingDate,
		CustomerID:  bill.CustomerID,
		Customer:    customer,
		LineItems:   make([]EnrichedLineItem, 0, len(bill.LineItems)),
		Failures:    []FetchFailure{},
		CreatedAt:   bill.CreatedAt,
	}
	if customerErr != nil {
		view.Customer = nil
		view.Failures = append(view.Failures, FetchFailure{
			Entity: "customer",
			ID:     bill.CustomerID,
			Reason: failureReason(customerErr),
		})
	}
	for _, productID := range productIDs {
		if err := productErrs[productID]; err != nil {
			view.Failures = append(view.Failures, FetchFailure{
				Entity: "product",
				ID:     productID,
				Reason: failureReason(err),
			})
		}
	}
	for _, item := range bill.LineItems {
		view.LineItems = append(view.LineItems, EnrichedLineItem{
			LineItem: item,
			Product:  products[item.ProductID],
		})
	}

	if len(view.Failures) > 0 {
		s.logger.Warn("bill enrichment degraded",
			zap.String("bill_id", bill.ID.String()),
			zap.Int("failures", len(view.Failures)),
		)
	}
	return view, nil
}

// failureReason maps a directory error to a wire-level reason. A deleted
// upstream entity and an unreachable directory both leave the field unset;
// only the recorded reason differs.
func failureReason(err error) string {
	if errors.Is(err, directory.ErrNotFound) {
		return ReasonNotFound
	}
	return ReasonUnavailable
}
