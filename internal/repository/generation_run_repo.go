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

// ErrRunNotFound is returned when a generation run id does not exist.
var ErrRunNotFound = errors.New("generation run not found")

type GenerationRunRepository struct {
	db *gorm.DB
}

func NewGenerationRunRepository(db *gorm.DB) *GenerationRunRepository {
	return &GenerationRunRepository{db: db}
}

// CreateRun records the start of a generation pass.
func (r *GenerationRunRepository) CreateRun(ctx context.Context, startedAt time.Time) (*models.GenerationRun, error) {
	run := &models.GenerationRun{
		ID:        uuid.New(),
		Status:    models.RunStatusRunning,
		StartedAt: startedAt,
		CreatedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("%w: create generation run: %v", ErrStoreFailure, err)
	}
	return run, nil
}

// UpdateRun persists the run's current counters and status.
func (r *GenerationRunRepository) UpdateRun(ctx context.Context, run *models.GenerationRun) error {
	if err := r.db.WithContext(ctx).Save(run).Error; err != nil {
		return fmt.Errorf("%w: update generation run %s: %v", ErrStoreFailure, run.ID, err)
	}
	return nil
}

// GetRun loads one generation run by id.
func (r *GenerationRunRepository) GetRun(ctx context.Context, id uuid.UUID) (*models.GenerationRun, error) {
	var run models.GenerationRun
	err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("%w: get generation run %s: %v", ErrStoreFailure, id, err)
	}
	return &run, nil
}
