package output

import (
	"context"
	"fmt"

	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/chrisdamba/dispatchsim/internal/repositories"
)

const postgresBatchSize = 500

// PostgresOutput buffers delivery records and copies them in batches.
type PostgresOutput struct {
	ctx     context.Context
	repo    repositories.DeliveryRepository
	pending []models.DeliveryRecord
	close   func()
}

// NewPostgresOutput writes through repo. onClose, when set, runs after the
// final flush.
func NewPostgresOutput(ctx context.Context, repo repositories.DeliveryRepository, onClose func()) *PostgresOutput {
	return &PostgresOutput{ctx: ctx, repo: repo, close: onClose}
}

func (p *PostgresOutput) WriteMessage(topic string, msg []byte) error {
	record, err := decodeRecord(topic, msg)
	if err != nil {
		return err
	}
	rec, ok := record.(models.DeliveryRecord)
	if !ok {
		return fmt.Errorf("topic %s has no table", topic)
	}
	p.pending = append(p.pending, rec)
	if len(p.pending) >= postgresBatchSize {
		return p.flush()
	}
	return nil
}

func (p *PostgresOutput) flush() error {
	if len(p.pending) == 0 {
		return nil
	}
	if err := p.repo.BulkCreate(p.ctx, p.pending); err != nil {
		return fmt.Errorf("failed to insert %d deliveries: %w", len(p.pending), err)
	}
	p.pending = p.pending[:0]
	return nil
}

func (p *PostgresOutput) Close() error {
	err := p.flush()
	if p.close != nil {
		p.close()
	}
	return err
}
