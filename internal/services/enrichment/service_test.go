package enrichment

import (
	"context"
	"sync"
	"testing"
	"time"

	"billing-aggregation-backend/internal/directory"
	"billing-aggregation-backend/internal/models"
	"billing-aggregation-backend/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeDirectory serves canned entities and injects per-directory faults,
// counting every remote call it receives.
type fakeDirectory struct {
	mu               sync.Mutex
	customers        map[string]directory.Customer
	products         map[string]directory.Product
	customersDown    bool
	productsDown     bool
	blockUntilCancel bool
	getCustomerCalls int
	getProductCalls  int
}

func (f *fakeDirectory) ListCustomers(ctx context.Context) ([]directory.Customer, error) {
	return nil, directory.ErrUnavailable
}

func (f *fakeDirectory) ListProducts(ctx context.Context) ([]directory.Product, error) {
	return nil, directory.ErrUnavailable
}

func (f *fakeDirectory) GetCustomer(ctx context.Context, id string) (*directory.Customer, error) {
	f.mu.Lock()
	f.getCustomerCalls++
	down := f.customersDown
	customer, ok := f.customers[id]
	f.mu.Unlock()
	if down {
		return nil, directory.ErrUnavailable
	}
	if !ok {
		return nil, directory.ErrNotFound
	}
	return &customer, nil
}

func (f *fakeDirectory) GetProduct(ctx context.Context, id string) (*directory.Product, error) {
	f.mu.Lock()
	f.getProductCalls++
	down := f.productsDown
	block := f.blockUntilCancel
	product, ok := f.products[id]
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, directory.ErrUnavailable
	}
	if down {
		return nil, directory.ErrUnavailable
	}
	if !ok {
		return nil, directory.ErrNotFound
	}
	return &product, nil
}

func setupTest(t *testing.T, dir directory.Client) (*Service, *repository.BillRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Bill{}, &models.LineItem{}))

	bills := repository.NewBillRepository(db)
	return NewService(bills, dir, zap.NewNop(), 2), bills
}

func seedBill(t *testing.T, bills *repository.BillRepository, customerID string, items ...models.LineItem) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	bill, err := bills.CreateBill(ctx, customerID, time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	for _, item := range items {
		_, err := bills.AddLineItem(ctx, bill.ID, item.ProductID, item.UnitPrice, item.Quantity)
		require.NoError(t, err)
	}
	return bill.ID
}

func healthyDirectory() *fakeDirectory {
	return &fakeDirectory{
		customers: map[string]directory.Customer{
			"c1": {ID: "c1", Name: "Yassine", Email: "yassine@test.com"},
		},
		products: map[string]directory.Product{
			"p1": {ID: "p1", Name: "Computer", Price: 6500, Quantity: 12},
			"p2": {ID: "p2", Name: "Printer", Price: 1200, Quantity: 15},
		},
	}
}

func TestGetEnrichedBill_AttachesLiveData(t *testing.T) {
	dir := healthyDirectory()
	svc, bills := setupTest(t, dir)
	billID := seedBill(t, bills, "c1",
		models.LineItem{ProductID: "p1", UnitPrice: 6500, Quantity: 2},
		models.LineItem{ProductID: "p2", UnitPrice: 1200, Quantity: 5},
	)

	view, err := svc.GetEnrichedBill(context.Background(), billID)
	require.NoError(t, err)

	require.NotNil(t, view.Customer)
	assert.Equal(t, "Yassine", view.Customer.Name)
	assert.Empty(t, view.Failures)

	require.Len(t, view.LineItems, 2)
	assert.Equal(t, "p1", view.LineItems[0].ProductID)
	require.NotNil(t, view.LineItems[0].Product)
	assert.Equal(t, "Computer", view.LineItems[0].Product.Name)
	require.NotNil(t, view.LineItems[1].Product)
	assert.Equal(t, "Printer", view.LineItems[1].Product.Name)
}

func TestGetEnrichedBill_ExposesSnapshotAndCurrentPriceSeparately(t *testing.T) {
	dir := healthyDirectory()
	svc, bills := setupTest(t, dir)
	billID := seedBill(t, bills, "c1",
		models.LineItem{ProductID: "p1", UnitPrice: 6500, Quantity: 1},
	)

	// Price moved after the bill was generated.
	dir.mu.Lock()
	dir.products["p1"] = directory.Product{ID: "p1", Name: "Computer", Price: 9999, Quantity: 12}
	dir.mu.Unlock()

	view, err := svc.GetEnrichedBill(context.Background(), billID)
	require.NoError(t, err)

	item := view.LineItems[0]
	assert.Equal(t, 6500.0, item.UnitPrice, "stored snapshot must not move")
	require.NotNil(t, item.Product)
	assert.Equal(t, 9999.0, item.Product.Price, "transient product carries the current price")
}

func TestGetEnrichedBill_ProductDirectoryDown(t *testing.T) {
	dir := healthyDirectory()
	dir.productsDown = true
	svc, bills := setupTest(t, dir)
	billID := seedBill(t, bills, "c1",
		models.LineItem{ProductID: "p1", UnitPrice: 6500, Quantity: 2},
		models.LineItem{ProductID: "p2", UnitPrice: 1200, Quantity: 5},
	)

	view, err := svc.GetEnrichedBill(context.Background(), billID)
	require.NoError(t, err, "partial enrichment failure must not fail the read")

	require.NotNil(t, view.Customer)
	for _, item := range view.LineItems {
		assert.Nil(t, item.Product)
	}
	require.Len(t, view.Failures, 2)
	assert.Equal(t, []FetchFailure{
		{Entity: "product", ID: "p1", Reason: ReasonUnavailable},
		{Entity: "product", ID: "p2", Reason: ReasonUnavailable},
	}, view.Failures)
}

func TestGetEnrichedBill_CustomerDeletedUpstream(t *testing.T) {
	dir := healthyDirectory()
	svc, bills := setupTest(t, dir)
	billID := seedBill(t, bills, "gone-customer",
		models.LineItem{ProductID: "p1", UnitPrice: 6500, Quantity: 1},
	)

	view, err := svc.GetEnrichedBill(context.Background(), billID)
	require.NoError(t, err)

	assert.Nil(t, view.Customer)
	require.Len(t, view.Failures, 1)
	assert.Equal(t, FetchFailure{Entity: "customer", ID: "gone-customer", Reason: ReasonNotFound}, view.Failures[0])
	require.NotNil(t, view.LineItems[0].Product)
}

func TestGetEnrichedBill_EveryFetchFailingStillReturnsTheBill(t *testing.T) {
	dir := healthyDirectory()
	dir.customersDown = true
	dir.productsDown = true
	svc, bills := setupTest(t, dir)
	billID := seedBill(t, bills, "c1",
		models.LineItem{ProductID: "p1", UnitPrice: 6500, Quantity: 1},
		models.LineItem{ProductID: "p2", UnitPrice: 1200, Quantity: 3},
	)

	view, err := svc.GetEnrichedBill(context.Background(), billID)
	require.NoError(t, err)

	assert.Nil(t, view.Customer)
	require.Len(t, view.Failures, 3)
	// Customer failure first, then products in first-reference order.
	assert.Equal(t, "customer", view.Failures[0].Entity)
	assert.Equal(t, "p1", view.Failures[1].ID)
	assert.Equal(t, "p2", view.Failures[2].ID)
	// The financial facts are still served.
	require.Len(t, view.LineItems, 2)
	assert.Equal(t, 6500.0, view.LineItems[0].UnitPrice)
}

func TestGetEnrichedBill_UnknownBillMakesNoRemoteCalls(t *testing.T) {
	dir := healthyDirectory()
	svc, _ := setupTest(t, dir)

	_, err := svc.GetEnrichedBill(context.Background(), uuid.New())
	require.ErrorIs(t, err, repository.ErrBillNotFound)

	assert.Zero(t, dir.getCustomerCalls)
	assert.Zero(t, dir.getProductCalls)
}

func TestGetEnrichedBill_FetchesEachDistinctProductOnce(t *testing.T) {
	dir := healthyDirectory()
	svc, bills := setupTest(t, dir)
	billID := seedBill(t, bills, "c1",
		models.LineItem{ProductID: "p1", UnitPrice: 6500, Quantity: 1},
		models.LineItem{ProductID: "p1", UnitPrice: 6500, Quantity: 4},
		models.LineItem{ProductID: "p2", UnitPrice: 1200, Quantity: 2},
	)

	view, err := svc.GetEnrichedBill(context.Background(), billID)
	require.NoError(t, err)

	assert.Equal(t, 2, dir.getProductCalls)
	require.Len(t, view.LineItems, 3)
	// Both p1 line items share the joined result.
	require.NotNil(t, view.LineItems[0].Product)
	require.NotNil(t, view.LineItems[1].Product)
	assert.Equal(t, view.LineItems[0].Product.ID, view.LineItems[1].Product.ID)
}

func TestGetEnrichedBill_DeadlineReturnsPartialResult(t *testing.T) {
	dir := healthyDirectory()
	dir.blockUntilCancel = true
	svc, bills := setupTest(t, dir)
	billID := seedBill(t, bills, "c1",
		models.LineItem{ProductID: "p1", UnitPrice: 6500, Quantity: 1},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	view, err := svc.GetEnrichedBill(ctx, billID)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "must not block past the deadline")

	assert.Nil(t, view.LineItems[0].Product)
	require.NotEmpty(t, view.Failures)
	for _, f := range view.Failures {
		if f.Entity == "product" {
			assert.Equal(t, ReasonUnavailable, f.Reason)
		}
	}
}
