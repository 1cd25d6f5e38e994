package memory

import (
	"context"
	"sync"

	"github.com/chrisdamba/dispatchsim/internal/models"
)

type DeliveryRepository struct {
	mu      sync.Mutex
	records []models.DeliveryRecord
}

func NewDeliveryRepository() *DeliveryRepository {
	return &DeliveryRepository{}
}

func (r *DeliveryRepository) BulkCreate(_ context.Context, records []models.DeliveryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, records...)
	return nil
}

func (r *DeliveryRepository) Count(_ context.Context, runID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.RunID == runID {
			n++
		}
	}
	return n, nil
}

func (r *DeliveryRepository) DeleteRun(_ context.Context, runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	for _, rec := range r.records {
		if rec.RunID != runID {
			kept = append(kept, rec)
		}
	}
	r.records = kept
	return nil
}

// Records returns a copy of everything stored.
func (r *DeliveryRepository) Records() []models.DeliveryRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.DeliveryRecord(nil), r.records...)
}
