package simulator

import (
	"fmt"

	"github.com/chrisdamba/dispatchsim/internal/models"
)

// handle runs one event and returns the effects it caused.
func (d *Dispatcher) handle(ev *models.Event) ([]models.Effect, error) {
	switch ev.Type {
	case models.EventOrderAssembled:
		o, ok := ev.Data.(*models.Order)
		if !ok {
			return nil, unexpected(ev)
		}
		return d.handleOrderAssembled(o)
	case models.EventCourierWorkStart:
		c, ok := ev.Data.(*models.Courier)
		if !ok {
			return nil, unexpected(ev)
		}
		e, err := c.BeginWork(d.now, c.Location, c.Point)
		return effects(e), err
	case models.EventCourierWorkEnd:
		c, ok := ev.Data.(*models.Courier)
		if !ok {
			return nil, unexpected(ev)
		}
		e, err := c.EndWork(d.now)
		return effects(e), err
	case models.EventDeliveryAlert, models.EventTaxiDeliveryAlert:
		b, ok := ev.Data.(*models.DeliveryBundle)
		if !ok {
			return nil, unexpected(ev)
		}
		return d.handleAlert(ev, b)
	case models.EventOrderDelivered:
		b, ok := ev.Data.(*models.DeliveryBundle)
		if !ok {
			return nil, unexpected(ev)
		}
		return d.handleDelivered(b)
	case models.EventShopDelivered:
		s, ok := ev.Data.(*models.Shop)
		if !ok {
			return nil, unexpected(ev)
		}
		d.queue.DisableItems(s.ReplaceShipment(nil)...)
		s.Close()
		d.log.Debugf("shop %s delivered all %d orders", s.ID, s.Delivered())
		return nil, nil
	}
	return nil, fmt.Errorf("%w: unknown event type %q", ErrUnexpectedPayload, ev.Type)
}

func unexpected(ev *models.Event) error {
	return fmt.Errorf("%w: %s event carries %T", ErrUnexpectedPayload, ev.Type, ev.Data)
}

func effects(e models.Effect) []models.Effect {
	if e.IsNone() {
		return nil
	}
	return []models.Effect{e}
}

func (d *Dispatcher) handleOrderAssembled(o *models.Order) ([]models.Effect, error) {
	s, ok := d.shopByID[o.ShopID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownShop, o.ShopID)
	}
	e, err := s.Assemble(d.now, o)
	if err != nil {
		return nil, err
	}
	return effects(e), nil
}

// handleAlert dispatches a proposed bundle once it is re-checked at the
// current time. A bundle that no longer holds sends its shop back to planning.
func (d *Dispatcher) handleAlert(ev *models.Event, b *models.DeliveryBundle) ([]models.Effect, error) {
	s, ok := d.shopByID[b.ShopID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownShop, b.ShopID)
	}
	if b.QueueIndex != ev.Index || !s.Proposed(b) || !b.Courier.Ready() {
		d.queue.DisableItems(ev.Index)
		d.markDirty(s.ID)
		return nil, nil
	}
	fresh, ok := d.optimizer.Verify(d.now, s, b)
	if !ok {
		d.log.Debugf("bundle %s of shop %s no longer feasible at %s", b.ID, s.ID, d.now.Format("15:04:05"))
		d.queue.DisableItems(ev.Index)
		d.markDirty(s.ID)
		return nil, nil
	}

	if err := s.StartDelivery(d.now, b); err != nil {
		return nil, err
	}
	started, err := fresh.Courier.BeginDelivery(d.now, fresh)
	if err != nil {
		return nil, err
	}
	if _, err := d.queue.AddEvent(fresh.EndTime, models.EventOrderDelivered, fresh); err != nil {
		return nil, fmt.Errorf("schedule delivery end of bundle %s: %w", fresh.ID, err)
	}
	d.executed = append(d.executed, fresh)
	vehicle := string(fresh.Courier.Vehicle)
	bundlesDispatched.WithLabelValues(vehicle).Inc()
	ordersDispatched.WithLabelValues(vehicle).Add(float64(fresh.Size()))
	d.log.Debugw("bundle dispatched", map[string]any{
		"bundle":  fresh.ID,
		"shop":    s.ID,
		"courier": fresh.Courier.ID,
		"orders":  fresh.Size(),
		"cost":    fresh.Cost,
		"end":     fresh.EndTime.Format("15:04:05"),
	})
	return []models.Effect{started}, nil
}

func (d *Dispatcher) handleDelivered(b *models.DeliveryBundle) ([]models.Effect, error) {
	s, ok := d.shopByID[b.ShopID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownShop, b.ShopID)
	}
	out := s.FinishDelivery(d.now, b)
	e, err := b.Courier.EndDelivery(d.now, b)
	if err != nil {
		return nil, err
	}
	return append(out, effects(e)...), nil
}
