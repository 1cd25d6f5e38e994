package postgres

import (
	"context"
	"time"

	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryWindow is how far back historical averages look.
const HistoryWindow = 28 * 24 * time.Hour

type StatisticsRepository struct {
	pool *pgxpool.Pool
}

func NewStatisticsRepository(pool *pgxpool.Pool) *StatisticsRepository {
	return &StatisticsRepository{pool: pool}
}

// GetAverageOrderDeliveryCost averages the cost per order of the shop's
// deliveries over the window ending at the start of day.
func (r *StatisticsRepository) GetAverageOrderDeliveryCost(ctx context.Context, shopID string, day time.Time) (map[models.VehicleType]float64, error) {
	to := day.UTC().Truncate(24 * time.Hour)
	from := to.Add(-HistoryWindow)

	rows, err := r.pool.Query(ctx, `
        SELECT vehicle, COALESCE(SUM(cost) / NULLIF(SUM(order_count), 0), 0)
        FROM deliveries
        WHERE shop_id = $1 AND start_time >= $2 AND start_time < $3
        GROUP BY vehicle
    `, shopID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	averages := make(map[models.VehicleType]float64)
	for rows.Next() {
		var vehicle string
		var avg float64
		if err := rows.Scan(&vehicle, &avg); err != nil {
			return nil, err
		}
		averages[models.VehicleType(vehicle)] = avg
	}
	return averages, rows.Err()
}
