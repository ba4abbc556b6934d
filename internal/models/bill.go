package models

import (
	"time"

	"github.com/google/uuid"
)

// Bill is a persisted record of charges issued to one customer on one date.
// CustomerID references an entity owned by the customer directory service and
// is not validated for existence at write time.
type Bill struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BillingDate time.Time  `gorm:"index" json:"billing_date"`
	CustomerID  string     `gorm:"index" json:"customer_id"`
	LineItems   []LineItem `gorm:"foreignKey:BillID" json:"line_items"`
	CreatedAt   time.Time  `json:"created_at"`
}
