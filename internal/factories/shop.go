package factories

import (
	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/lucsky/cuid"
)

func (f *DayFactory) CreateShop(city models.Location) *models.Shop {
	return &models.Shop{
		ID:       cuid.New(),
		Name:     f.fake.Company().Name(),
		Location: f.near(city, f.cfg.UrbanRadius),
	}
}

// CreateHistory spreads the configured historical cost per order around the
// owned vehicle types. Taxis are priced at twice the base.
func (f *DayFactory) CreateHistory(shop *models.Shop) models.ShopHistory {
	base := f.cfg.HistoricalCost
	averages := map[models.VehicleType]float64{models.VehicleTaxi: 2 * base}
	for _, v := range []models.VehicleType{models.VehicleOnFoot, models.VehicleBicycle, models.VehicleCar} {
		factor := 0.8 + 0.4*f.rng.Float64()
		averages[v] = round2(base * factor)
	}
	return models.ShopHistory{ShopID: shop.ID, AverageCost: averages}
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
