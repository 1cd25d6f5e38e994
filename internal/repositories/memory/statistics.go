package memory

import (
	"context"
	"time"

	"github.com/chrisdamba/dispatchsim/internal/models"
)

// StatisticsRepository serves the history shipped with a day file.
type StatisticsRepository struct {
	byShop map[string]map[models.VehicleType]float64
}

func NewStatisticsRepository(history []models.ShopHistory) *StatisticsRepository {
	r := &StatisticsRepository{byShop: make(map[string]map[models.VehicleType]float64, len(history))}
	for _, h := range history {
		r.byShop[h.ShopID] = h.AverageCost
	}
	return r
}

// GetAverageOrderDeliveryCost returns a copy of the shop's averages, or an
// empty map for a shop without history.
func (r *StatisticsRepository) GetAverageOrderDeliveryCost(_ context.Context, shopID string, _ time.Time) (map[models.VehicleType]float64, error) {
	averages := make(map[models.VehicleType]float64)
	for v, cost := range r.byShop[shopID] {
		averages[v] = cost
	}
	return averages, nil
}
