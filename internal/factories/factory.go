package factories

import (
	"math"
	"math/rand"
	"time"

	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/jaswdr/faker"
)

const kmPerDegree = 111.0

// DayFactory builds synthetic days. All randomness comes from the generator
// seed so a seed yields the same day, IDs aside.
type DayFactory struct {
	cfg  models.GeneratorConfig
	fake faker.Faker
	rng  *rand.Rand
}

func NewDayFactory(cfg models.GeneratorConfig) *DayFactory {
	return &DayFactory{
		cfg:  cfg,
		fake: faker.NewWithSeed(rand.NewSource(cfg.Seed)),
		rng:  rand.New(rand.NewSource(cfg.Seed)),
	}
}

// CreateDay returns shops, their couriers and orders for the day of date.
func (f *DayFactory) CreateDay(date time.Time) *models.DayData {
	day := &models.DayData{Date: date.UTC().Truncate(24 * time.Hour)}
	city := models.Location{Lat: f.cfg.CityLat, Lon: f.cfg.CityLon}

	for range f.cfg.Shops {
		shop := f.CreateShop(city)
		day.Shops = append(day.Shops, shop)
		for range f.cfg.CouriersPerShop {
			day.Couriers = append(day.Couriers, f.CreateCourier(shop, day.Date))
		}
		for range f.cfg.OrdersPerShop {
			day.Orders = append(day.Orders, f.CreateOrder(shop, day.Date))
		}
		if f.cfg.HistoricalCost > 0 {
			day.History = append(day.History, f.CreateHistory(shop))
		}
	}
	return day
}

// near returns a point in the square of half-side radius km around center.
func (f *DayFactory) near(center models.Location, radius float64) models.Location {
	latRange := radius / kmPerDegree
	lonRange := latRange / math.Cos(center.Lat*math.Pi/180.0)

	latOffset := (f.rng.Float64()*2 - 1) * latRange
	lonOffset := (f.rng.Float64()*2 - 1) * lonRange
	return models.Location{
		Lat: round6(center.Lat + latOffset),
		Lon: round6(center.Lon + lonOffset),
	}
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func (f *DayFactory) minutesBetween(lo, hi time.Duration) time.Duration {
	return time.Duration(f.fake.IntBetween(int(lo.Minutes()), int(hi.Minutes()))) * time.Minute
}
