package factories

import (
	"time"

	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/lucsky/cuid"
)

// courier starting points stay within this distance of their home shop
const courierRadius = 1.0

var vehicleWeights = []struct {
	vehicle models.VehicleType
	weight  int
}{
	{models.VehicleOnFoot, 20},
	{models.VehicleBicycle, 40},
	{models.VehicleCar, 40},
}

// CreateCourier returns an off-duty courier near shop whose shift starts
// within three hours of opening and lasts six to ten hours.
func (f *DayFactory) CreateCourier(shop *models.Shop, date time.Time) *models.Courier {
	open := date.Add(time.Duration(f.cfg.OpenHour) * time.Hour)
	limit := date.Add(time.Duration(f.cfg.CloseHour+2) * time.Hour)

	start := open.Add(time.Duration(f.fake.IntBetween(0, 6)) * 30 * time.Minute)
	end := start.Add(time.Duration(f.fake.IntBetween(6, 10)) * time.Hour)
	if end.After(limit) {
		end = limit
	}
	if !end.After(start) {
		end = start.Add(time.Hour)
	}

	c := models.NewCourier(cuid.New(), f.pickVehicle(), models.VehicleProfile{}, f.near(shop.Location, courierRadius), start, end)
	c.Name = f.fake.Person().Name()
	return c
}

func (f *DayFactory) pickVehicle() models.VehicleType {
	total := 0
	for _, w := range vehicleWeights {
		total += w.weight
	}
	r := f.fake.IntBetween(1, total)
	for _, w := range vehicleWeights {
		r -= w.weight
		if r <= 0 {
			return w.vehicle
		}
	}
	return models.VehicleBicycle
}
