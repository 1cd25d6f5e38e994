package repositories

import (
	"context"
	"time"

	"github.com/chrisdamba/dispatchsim/internal/models"
)

// DayRepository loads the shops, courier roster and orders of one day.
type DayRepository interface {
	LoadDay(ctx context.Context, date time.Time) (*models.DayData, error)
}

// StatisticsRepository supplies historical cost per order by vehicle type.
type StatisticsRepository interface {
	GetAverageOrderDeliveryCost(ctx context.Context, shopID string, day time.Time) (map[models.VehicleType]float64, error)
}

type DeliveryRepository interface {
	BulkCreate(ctx context.Context, records []models.DeliveryRecord) error
	Count(ctx context.Context, runID string) (int, error)
	DeleteRun(ctx context.Context, runID string) error
}
