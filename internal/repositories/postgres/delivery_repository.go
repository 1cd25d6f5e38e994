package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var deliveryColumns = []string{
	"run_id", "bundle_id", "shop_id", "courier_id", "vehicle", "taxi",
	"start_time", "end_time", "order_ids", "order_count", "cost", "distance", "reserve_seconds",
}

type DeliveryRepository struct {
	pool *pgxpool.Pool
}

func NewDeliveryRepository(pool *pgxpool.Pool) *DeliveryRepository {
	return &DeliveryRepository{pool: pool}
}

// BulkCreate copies records into the deliveries table.
func (r *DeliveryRepository) BulkCreate(ctx context.Context, records []models.DeliveryRecord) error {
	if len(records) == 0 {
		return nil
	}
	n, err := r.pool.CopyFrom(ctx, pgx.Identifier{"deliveries"}, deliveryColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			rec := records[i]
			var ids []string
			if rec.OrderIDs != "" {
				ids = strings.Split(rec.OrderIDs, ",")
			}
			return []any{
				rec.RunID, rec.BundleID, rec.ShopID, rec.CourierID, rec.Vehicle, rec.Taxi,
				time.Unix(rec.StartTime, 0).UTC(), time.Unix(rec.EndTime, 0).UTC(),
				ids, rec.OrderCount, rec.Cost, rec.Distance, rec.ReserveSeconds,
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("failed to copy deliveries: %w", err)
	}
	if int(n) != len(records) {
		return fmt.Errorf("copied %d of %d deliveries", n, len(records))
	}
	return nil
}

func (r *DeliveryRepository) Count(ctx context.Context, runID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM deliveries WHERE run_id = $1`, runID).Scan(&count)
	return count, err
}

func (r *DeliveryRepository) DeleteRun(ctx context.Context, runID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM deliveries WHERE run_id = $1`, runID)
	return err
}
