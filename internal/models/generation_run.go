package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// GenerationRun tracks one generation pass. A pass is not idempotent: running
// it twice duplicates every bill, and the run records exist so operators can
// see exactly what each pass wrote.
type GenerationRun struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Status        string         `gorm:"index" json:"status"`
	CustomerCount int            `json:"customer_count"`
	ProductCount  int            `json:"product_count"`
	BillCount     int            `json:"bill_count"`
	LineItemCount int            `json:"line_item_count"`
	Details       datatypes.JSON `json:"details,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
