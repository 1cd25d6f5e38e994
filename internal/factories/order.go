package factories

import (
	"math"
	"time"

	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/lucsky/cuid"
)

const minDeliveryWindow = 15 * time.Minute

// CreateOrder places an order at a random minute of the shop's opening hours.
// It is assembled after the preparation time and due by the promised time,
// never less than minDeliveryWindow after assembly.
func (f *DayFactory) CreateOrder(shop *models.Shop, date time.Time) *models.Order {
	open := date.Add(time.Duration(f.cfg.OpenHour) * time.Hour)
	hours := max(f.cfg.CloseHour-f.cfg.OpenHour, 1)
	placed := open.Add(time.Duration(f.fake.IntBetween(0, hours*60-1)) * time.Minute)

	assembled := placed.Add(f.minutesBetween(f.cfg.MinPrepTime, f.cfg.MaxPrepTime))
	deadline := placed.Add(f.minutesBetween(f.cfg.MinPromise, f.cfg.MaxPromise))
	if deadline.Before(assembled.Add(minDeliveryWindow)) {
		deadline = assembled.Add(minDeliveryWindow)
	}

	maxWeight := math.Max(f.cfg.MaxOrderWeight, 0.5)
	weight := math.Round((0.5+f.rng.Float64()*(maxWeight-0.5))*10) / 10

	return &models.Order{
		ID:          cuid.New(),
		ShopID:      shop.ID,
		Location:    f.near(shop.Location, f.cfg.DeliveryRadius),
		Weight:      weight,
		AssembledAt: assembled,
		Deadline:    deadline,
		Status:      models.OrderStatusPending,
	}
}
