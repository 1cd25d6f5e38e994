package simulator

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/chrisdamba/dispatchsim/internal/geo"
	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// km places a point on a plane measured in kilometres.
func km(x, y float64) models.Location { return models.Location{Lat: x, Lon: y} }

var manhattan = geo.ProviderFunc(func(_ context.Context, a, b models.Location) (float64, error) {
	return math.Abs(a.Lat-b.Lat) + math.Abs(a.Lon-b.Lon), nil
})

// testProfile travels one kilometre a minute and costs one unit a minute.
func testProfile() models.VehicleProfile {
	return models.VehicleProfile{Speed: 60, HourlyRate: 60, MaxWeight: 20, MaxOrders: 4}
}

func testTaxiProfile() models.VehicleProfile {
	return models.VehicleProfile{Speed: 60, MaxOrders: 4, BaseFare: 100, PerKmRate: 10, CallDelay: 10 * time.Minute}
}

func testConfig() *models.Config {
	return &models.Config{
		Simulation: models.SimulationConfig{
			Date:                      testDay,
			QueueCapacity:             100000,
			AlertThreshold:            10 * time.Minute,
			MaxCandidateOrders:        8,
			TwoOptIterations:          50,
			MaxReallocationIterations: 16,
			DistanceAllowance:         1,
		},
		Vehicles: map[models.VehicleType]models.VehicleProfile{
			models.VehicleBicycle: testProfile(),
			models.VehicleTaxi:    testTaxiProfile(),
		},
	}
}

func newTestShop(id string, loc models.Location) *models.Shop {
	return &models.Shop{ID: id, Name: id, Location: loc}
}

func newTestOrder(id, shopID string, loc models.Location, assembled, deadline time.Time) *models.Order {
	return &models.Order{ID: id, ShopID: shopID, Location: loc, Weight: 1, AssembledAt: assembled, Deadline: deadline}
}

func newTestCourier(id string, loc models.Location) *models.Courier {
	return models.NewCourier(id, models.VehicleBicycle, testProfile(), loc, at(9, 0), at(18, 0))
}

// testMatrix builds a distance matrix over every location of the fixtures and
// resolves their points.
func testMatrix(t *testing.T, shops []*models.Shop, couriers []*models.Courier, orders []*models.Order) *geo.Matrix {
	t.Helper()
	day := &models.DayData{Shops: shops, Couriers: couriers, Orders: orders}
	m, err := geo.NewMatrix(context.Background(), manhattan, geo.DayLocations(day), 2)
	require.NoError(t, err)
	for _, s := range shops {
		s.Point, _ = m.Index(s.Location)
	}
	for _, c := range couriers {
		c.Point, _ = m.Index(c.Location)
	}
	for _, o := range orders {
		o.Point, _ = m.Index(o.Location)
	}
	return m
}

// readyShop opens the shop for the day with every order assembled by now.
func readyShop(now time.Time, s *models.Shop, orders []*models.Order, taxi *models.Courier) {
	s.BeginDay(orders, nil, taxi)
	s.AssembleDue(now)
}

// readyCourier puts an owned courier on shift.
func readyCourier(t *testing.T, now time.Time, handle int, c *models.Courier) {
	t.Helper()
	c.Prepare(handle, c.Profile, c.Point)
	_, err := c.BeginWork(now, c.Location, c.Point)
	require.NoError(t, err)
}

func orderIDs(b *models.DeliveryBundle) []string {
	ids := make([]string, len(b.Orders))
	for i, o := range b.Orders {
		ids[i] = o.ID
	}
	return ids
}
