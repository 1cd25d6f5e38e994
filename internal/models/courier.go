package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalidTransition = errors.New("invalid courier transition")

type Courier struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Vehicle          VehicleType   `json:"vehicle"`
	Location         Location      `json:"location"`
	WorkStart        time.Time     `json:"work_start"`
	WorkEnd          time.Time     `json:"work_end"`
	AverageOrderCost float64       `json:"average_order_cost"`
	Status           CourierStatus `json:"status,omitempty"`
	LastDeliveryEnd  time.Time     `json:"last_delivery_end,omitempty"`

	Profile VehicleProfile  `json:"-"`
	Handle  int             `json:"-"`
	Point   int             `json:"-"`
	Bundle  *DeliveryBundle `json:"-"`

	// ShopID is set for taxis only: a taxi serves exactly one shop.
	ShopID string `json:"-"`

	// AssignedShop pins the courier to one shop while a reallocation pass runs.
	AssignedShop string `json:"-"`

	leaving bool
}

// DeliveryCheckResult is the priced outcome of a feasible DeliveryCheck.
type DeliveryCheckResult struct {
	Departure time.Time
	Finish    time.Time
	Distance  float64
	Cost      float64
	Reserve   time.Duration
	WindowEnd time.Time
}

func NewCourier(id string, vehicle VehicleType, profile VehicleProfile, loc Location, workStart, workEnd time.Time) *Courier {
	return &Courier{
		ID:        id,
		Vehicle:   vehicle,
		Profile:   profile,
		Location:  loc,
		WorkStart: workStart,
		WorkEnd:   workEnd,
		Status:    CourierStatusOffDuty,
	}
}

// NewTaxi returns the virtual taxi serving a shop. It is always ready and
// never becomes busy.
func NewTaxi(shop *Shop, profile VehicleProfile) *Courier {
	return &Courier{
		ID:       "taxi-" + shop.ID,
		Name:     "taxi",
		Vehicle:  VehicleTaxi,
		Profile:  profile,
		Location: shop.Location,
		Point:    shop.Point,
		ShopID:   shop.ID,
		Status:   CourierStatusReady,
	}
}

// Prepare resets a courier for a new day.
func (c *Courier) Prepare(handle int, profile VehicleProfile, point int) {
	c.Handle = handle
	c.Profile = profile
	c.Point = point
	c.Bundle = nil
	c.AssignedShop = ""
	c.leaving = false
	c.LastDeliveryEnd = time.Time{}
	if c.IsTaxi() {
		c.Status = CourierStatusReady
	} else {
		c.Status = CourierStatusOffDuty
	}
}

func (c *Courier) IsTaxi() bool { return c.Vehicle == VehicleTaxi }

func (c *Courier) Ready() bool { return c.Status == CourierStatusReady }

// OnShift reports whether now lies inside the work shift. Taxis are always on shift.
func (c *Courier) OnShift(now time.Time) bool {
	if c.IsTaxi() {
		return true
	}
	return !now.Before(c.WorkStart) && now.Before(c.WorkEnd)
}

func (c *Courier) BeginWork(now time.Time, loc Location, point int) (Effect, error) {
	if c.IsTaxi() || c.Status != CourierStatusOffDuty {
		return Effect{}, fmt.Errorf("%w: %s cannot begin work while %s", ErrInvalidTransition, c.ID, c.Status)
	}
	c.Status = CourierStatusReady
	c.Location = loc
	c.Point = point
	c.leaving = false
	return Effect{Kind: EffectCourierReady, At: now, Courier: c}, nil
}

func (c *Courier) BeginDelivery(now time.Time, b *DeliveryBundle) (Effect, error) {
	if c.Status != CourierStatusReady {
		return Effect{}, fmt.Errorf("%w: %s cannot start a delivery while %s", ErrInvalidTransition, c.ID, c.Status)
	}
	if b == nil || b.Courier != c {
		return Effect{}, fmt.Errorf("%w: bundle is not assigned to %s", ErrInvalidTransition, c.ID)
	}
	if !c.IsTaxi() {
		c.Status = CourierStatusBusy
		c.Bundle = b
	}
	return Effect{Kind: EffectDeliveryStarted, At: now, ShopID: b.ShopID, Courier: c, Bundle: b}, nil
}

// EndDelivery moves the courier to the bundle's last stop. A courier whose
// shift ended during the trip goes off duty instead of becoming ready.
func (c *Courier) EndDelivery(now time.Time, b *DeliveryBundle) (Effect, error) {
	if c.IsTaxi() {
		return Effect{Kind: EffectNone, At: now, Courier: c, Bundle: b}, nil
	}
	if c.Status != CourierStatusBusy || c.Bundle != b {
		return Effect{}, fmt.Errorf("%w: %s is not delivering this bundle", ErrInvalidTransition, c.ID)
	}
	last := b.Route[len(b.Route)-1]
	c.Location = last.Location
	c.Point = last.Point
	c.Bundle = nil
	c.LastDeliveryEnd = now
	if c.leaving {
		c.leaving = false
		c.Status = CourierStatusOffDuty
		return Effect{Kind: EffectCourierLeft, At: now, Courier: c}, nil
	}
	c.Status = CourierStatusReady
	return Effect{Kind: EffectCourierReady, At: now, Courier: c}, nil
}

// EndWork takes the courier off duty. While busy the transition is deferred
// until the running delivery ends.
func (c *Courier) EndWork(now time.Time) (Effect, error) {
	switch {
	case c.IsTaxi():
		return Effect{}, fmt.Errorf("%w: taxis have no shift", ErrInvalidTransition)
	case c.Status == CourierStatusReady:
		c.Status = CourierStatusOffDuty
		return Effect{Kind: EffectCourierLeft, At: now, Courier: c}, nil
	case c.Status == CourierStatusBusy:
		c.leaving = true
		return Effect{Kind: EffectNone, At: now, Courier: c}, nil
	}
	return Effect{}, fmt.Errorf("%w: %s cannot end work while %s", ErrInvalidTransition, c.ID, c.Status)
}

// DeliveryCheck prices a trip from the courier's position through the shop and
// then every stop in order. legs[0] is the courier to shop distance and legs[i]
// the distance into stop i-1; deadlines holds one entry per stop. It returns
// false when a deadline, the capacity or the shift end would be violated.
func (c *Courier) DeliveryCheck(now, assembled time.Time, legs []float64, deadlines []time.Time, weight float64) (DeliveryCheckResult, bool) {
	if len(deadlines) == 0 || len(legs) != len(deadlines)+1 {
		panic(fmt.Sprintf("delivery check: %d legs for %d stops", len(legs), len(deadlines)))
	}
	p := c.Profile
	if p.MaxOrders > 0 && len(deadlines) > p.MaxOrders {
		return DeliveryCheckResult{}, false
	}
	if p.MaxWeight > 0 && weight > p.MaxWeight {
		return DeliveryCheckResult{}, false
	}

	t := c.departure(now, assembled, legs[0])
	res := DeliveryCheckResult{Departure: t}
	reserve := time.Duration(math.MaxInt64)
	km := 0.0
	for i, deadline := range deadlines {
		km += legs[i+1]
		t = t.Add(p.Travel(legs[i+1]))
		if t.After(deadline) {
			return DeliveryCheckResult{}, false
		}
		if slack := deadline.Sub(t); slack < reserve {
			reserve = slack
		}
		t = t.Add(p.HandlingTime)
	}

	if c.IsTaxi() {
		res.Distance = km
		res.Cost = p.BaseFare + p.PerKmRate*km
	} else {
		if !c.WorkEnd.IsZero() {
			if t.After(c.WorkEnd) {
				return DeliveryCheckResult{}, false
			}
			if slack := c.WorkEnd.Sub(t); slack < reserve {
				reserve = slack
			}
		}
		res.Distance = km + legs[0]
		res.Cost = p.HourlyRate * t.Sub(now).Hours() * (1 + p.Insurance)
	}
	res.Finish = t
	res.Reserve = reserve
	res.WindowEnd = now.Add(reserve)
	return res, true
}

// Arrivals returns the arrival time at each stop for the same trip
// DeliveryCheck prices.
func (c *Courier) Arrivals(now, assembled time.Time, legs []float64) []time.Time {
	t := c.departure(now, assembled, legs[0])
	out := make([]time.Time, 0, len(legs)-1)
	for _, leg := range legs[1:] {
		t = t.Add(c.Profile.Travel(leg))
		out = append(out, t)
		t = t.Add(c.Profile.HandlingTime)
	}
	return out
}

func (c *Courier) departure(now, assembled time.Time, toShop float64) time.Time {
	var t time.Time
	if c.IsTaxi() {
		t = now.Add(c.Profile.CallDelay)
	} else {
		t = now.Add(c.Profile.Travel(toShop))
	}
	if assembled.After(t) {
		t = assembled
	}
	return t.Add(c.Profile.ShopTime)
}
