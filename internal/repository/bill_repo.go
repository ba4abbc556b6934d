package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"billing-aggregation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrBillNotFound is returned when a bill id does not exist in the store.
var ErrBillNotFound = errors.New("bill not found")

// ErrStoreFailure wraps any persistence failure that is not a missing record.
var ErrStoreFailure = errors.New("store failure")

type BillRepository struct {
	db *gorm.DB
}

func NewBillRepository(db *gorm.DB) *BillRepository {
	return &BillRepository{db: db}
}

// CreateBill persists a new bill with a fresh id and no line items.
func (r *BillRepository) CreateBill(ctx context.Context, customerID string, billingDate time.Time) (*models.Bill, error) {
	bill := &models.Bill{
		ID:          uuid.New(),
		BillingDate: billingDate,
		CustomerID:  customerID,
		CreatedAt:   time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(bill).Error; err != nil {
		return nil, fmt.Errorf("%w: create bill: %v", ErrStoreFailure, err)
	}
	return bill, nil
}

// AddLineItem appends a line item to an existing bill. The snapshot price is
// written once here and never updated afterwards.
func (r *BillRepository) AddLineItem(ctx context.Context, billID uuid.UUID, productID string, unitPrice float64, quantity int) (*models.LineItem, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Bill{}).Where("id = ?", billID).Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("%w: look up bill %s: %v", ErrStoreFailure, billID, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", ErrBillNotFound, billID)
	}

	var position int64
	err = r.db.WithContext(ctx).Model(&models.LineItem{}).Where("bill_id = ?", billID).Count(&position).Error
	if err != nil {
		return nil, fmt.Errorf("%w: count line items for %s: %v", ErrStoreFailure, billID, err)
	}

	item := &models.LineItem{
		ID:        uuid.New(),
		BillID:    billID,
		ProductID: productID,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Position:  int(position),
		CreatedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, fmt.Errorf("%w: create line item: %v", ErrStoreFailure, err)
	}
	return item, nil
}

// GetBill loads one bill with its line items in insertion order. Transient
// enrichment data is never part of the stored record.
func (r *BillRepository) GetBill(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	var bill models.Bill
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&bill, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBillNotFound, id)
		}
		return nil, fmt.Errorf("%w: get bill %s: %v", ErrStoreFailure, id, err)
	}
	return &bill, nil
}

// ListBills returns all stored bills with line items, newest first.
func (r *BillRepository) ListBills(ctx context.Context) ([]models.Bill, error) {
	var bills []models.Bill
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at DESC").
		Find(&bills).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list bills: %v", ErrStoreFailure, err)
	}
	return bills, nil
}
