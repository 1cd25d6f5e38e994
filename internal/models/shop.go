package models

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownOrder = errors.New("order does not belong to shop")

type Shop struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location Location `json:"location"`

	Point  int      `json:"-"`
	Orders []*Order `json:"-"`

	// PossibleShipment holds the bundles currently proposed for the shop. Each
	// one owns an alert in the event queue until it is replaced or dispatched.
	PossibleShipment []*DeliveryBundle `json:"-"`

	AverageCost map[VehicleType]float64 `json:"-"`
	Taxi        *Courier                `json:"-"`

	delivered int
	closed    bool
}

// BeginDay attaches the day's orders and historical averages to the shop.
func (s *Shop) BeginDay(orders []*Order, averages map[VehicleType]float64, taxi *Courier) {
	s.Orders = orders
	for i, o := range orders {
		o.Index = i
		o.Status = OrderStatusPending
		o.DeliveredAt = time.Time{}
	}
	s.AverageCost = make(map[VehicleType]float64, len(averages))
	for v, cost := range averages {
		s.AverageCost[v] = cost
	}
	s.Taxi = taxi
	s.PossibleShipment = nil
	s.delivered = 0
	s.closed = false
}

func (s *Shop) Assemble(now time.Time, o *Order) (Effect, error) {
	if o.ShopID != s.ID || o.Index >= len(s.Orders) || s.Orders[o.Index] != o {
		return Effect{}, fmt.Errorf("%w: %s/%s", ErrUnknownOrder, s.ID, o.ID)
	}
	if o.Status != OrderStatusPending {
		return Effect{}, nil
	}
	o.Status = OrderStatusAssembled
	return Effect{Kind: EffectOrderAssembled, At: now, ShopID: s.ID, Order: o}, nil
}

// AssembleDue marks every pending order assembled by now. It covers orders
// whose assembly events fell before the queue cursor.
func (s *Shop) AssembleDue(now time.Time) []Effect {
	var effects []Effect
	for _, o := range s.Orders {
		if o.Status == OrderStatusPending && !o.AssembledAt.After(now) {
			o.Status = OrderStatusAssembled
			effects = append(effects, Effect{Kind: EffectOrderAssembled, At: now, ShopID: s.ID, Order: o})
		}
	}
	return effects
}

// ReplaceShipment installs a new proposal set and returns the queue indexes of
// the alerts owned by the bundles it replaces.
func (s *Shop) ReplaceShipment(bundles []*DeliveryBundle) []int {
	stale := make([]int, 0, len(s.PossibleShipment))
	for _, b := range s.PossibleShipment {
		if b.QueueIndex >= 0 {
			stale = append(stale, b.QueueIndex)
		}
	}
	s.PossibleShipment = bundles
	return stale
}

// Proposed reports whether b is still part of the shop's current proposals.
func (s *Shop) Proposed(b *DeliveryBundle) bool {
	for _, p := range s.PossibleShipment {
		if p == b {
			return true
		}
	}
	return false
}

func (s *Shop) Proposes(c *Courier) bool {
	for _, b := range s.PossibleShipment {
		if b.Courier == c {
			return true
		}
	}
	return false
}

// StartDelivery hands the bundle's orders to its courier and drops the
// bundle from the proposals.
func (s *Shop) StartDelivery(now time.Time, b *DeliveryBundle) error {
	for _, o := range b.Orders {
		if o.ShopID != s.ID {
			return fmt.Errorf("%w: %s/%s", ErrUnknownOrder, s.ID, o.ID)
		}
		if o.Status != OrderStatusAssembled {
			return fmt.Errorf("order %s cannot be dispatched while %s", o.ID, o.Status)
		}
	}
	for _, o := range b.Orders {
		o.Status = OrderStatusInDelivery
	}
	kept := s.PossibleShipment[:0]
	for _, p := range s.PossibleShipment {
		if p != b {
			kept = append(kept, p)
		}
	}
	s.PossibleShipment = kept
	return nil
}

// FinishDelivery records the bundle's orders as delivered at their arrival
// times.
func (s *Shop) FinishDelivery(now time.Time, b *DeliveryBundle) []Effect {
	effects := []Effect{{Kind: EffectDeliveryFinished, At: now, ShopID: s.ID, Bundle: b, Courier: b.Courier}}
	for i, o := range b.Orders {
		if o.Status == OrderStatusDelivered {
			continue
		}
		o.Status = OrderStatusDelivered
		o.DeliveredAt = b.Route[i].Arrival
		s.delivered++
	}
	if s.AllDelivered() {
		effects = append(effects, Effect{Kind: EffectShopDelivered, At: now, ShopID: s.ID})
	}
	return effects
}

func (s *Shop) AllDelivered() bool { return len(s.Orders) > 0 && s.delivered == len(s.Orders) }

func (s *Shop) Delivered() int { return s.delivered }

// Close stops further planning for the shop once every order is delivered.
func (s *Shop) Close() { s.closed = true }

func (s *Shop) Closed() bool { return s.closed }
