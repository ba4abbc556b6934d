package models

import (
	"time"

	"github.com/google/uuid"
)

// LineItem is one product's charge within a bill. UnitPrice is a snapshot of
// the product's price at the moment the line item was created and is never
// re-read from the directory once written; the product's current price lives
// only in the transient enriched view.
type LineItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BillID    uuid.UUID `gorm:"type:uuid;index" json:"bill_id"`
	ProductID string    `gorm:"index" json:"product_id"`
	UnitPrice float64   `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}
