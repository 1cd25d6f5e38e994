package models

import (
	"time"

	"github.com/lucsky/cuid"
)

type Stop struct {
	OrderID  string    `json:"order_id"`
	Location Location  `json:"location"`
	Point    int       `json:"-"`
	Leg      float64   `json:"leg_km"`
	Arrival  time.Time `json:"arrival"`
	Deadline time.Time `json:"deadline"`
}

// DeliveryBundle is one proposed trip: a courier, the orders it carries and
// the priced route. A bundle is never changed after creation; a different
// proposal is a new bundle.
type DeliveryBundle struct {
	ID          string
	ShopID      string
	Courier     *Courier
	Orders      []*Order
	Route       []Stop
	Cost        float64
	Distance    float64
	CreatedAt   time.Time
	Departure   time.Time
	WindowEnd   time.Time
	EndTime     time.Time
	ReserveTime time.Duration

	// QueueIndex is the slot of the bundle's alert in the event queue, or -1.
	QueueIndex int
}

// NewDeliveryBundle builds a bundle for orders visited in the given order.
// legs and res come from the DeliveryCheck that accepted the route.
func NewDeliveryBundle(now time.Time, shop *Shop, c *Courier, orders []*Order, legs []float64, res DeliveryCheckResult) *DeliveryBundle {
	assembled := LatestAssembly(orders)
	arrivals := c.Arrivals(now, assembled, legs)
	route := make([]Stop, len(orders))
	for i, o := range orders {
		route[i] = Stop{
			OrderID:  o.ID,
			Location: o.Location,
			Point:    o.Point,
			Leg:      legs[i+1],
			Arrival:  arrivals[i],
			Deadline: o.Deadline,
		}
	}
	return &DeliveryBundle{
		ID:          cuid.New(),
		ShopID:      shop.ID,
		Courier:     c,
		Orders:      append([]*Order(nil), orders...),
		Route:       route,
		Cost:        res.Cost,
		Distance:    res.Distance,
		CreatedAt:   now,
		Departure:   res.Departure,
		WindowEnd:   res.WindowEnd,
		EndTime:     res.Finish,
		ReserveTime: res.Reserve,
		QueueIndex:  -1,
	}
}

func (b *DeliveryBundle) Size() int { return len(b.Orders) }

// OrderCost is the bundle cost per carried order.
func (b *DeliveryBundle) OrderCost() float64 {
	if len(b.Orders) == 0 {
		return 0
	}
	return b.Cost / float64(len(b.Orders))
}

func (b *DeliveryBundle) IsTaxi() bool { return b.Courier != nil && b.Courier.IsTaxi() }

func (b *DeliveryBundle) Contains(orderID string) bool {
	for _, o := range b.Orders {
		if o.ID == orderID {
			return true
		}
	}
	return false
}

// Weight is the total weight of the carried orders.
func (b *DeliveryBundle) Weight() float64 {
	return TotalWeight(b.Orders)
}

func LatestAssembly(orders []*Order) time.Time {
	var t time.Time
	for _, o := range orders {
		if o.AssembledAt.After(t) {
			t = o.AssembledAt
		}
	}
	return t
}

func TotalWeight(orders []*Order) float64 {
	w := 0.0
	for _, o := range orders {
		w += o.Weight
	}
	return w
}
