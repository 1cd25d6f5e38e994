package simulator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chrisdamba/dispatchsim/internal/geo"
	"github.com/chrisdamba/dispatchsim/internal/logger"
	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/chrisdamba/dispatchsim/internal/permutations"
)

// Status is the outcome of RunDay.
type Status int

const (
	StatusOK Status = iota
	StatusNoOrders
	StatusNoShops
	StatusNoCouriers
	StatusException
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoOrders:
		return "no_orders"
	case StatusNoShops:
		return "no_shops"
	case StatusNoCouriers:
		return "no_couriers"
	case StatusException:
		return "exception"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

var (
	ErrUnexpectedPayload = errors.New("unexpected event payload")
	ErrUnknownShop       = errors.New("unknown shop")
	ErrUnknownVehicle    = errors.New("unknown vehicle type")
	ErrUnknownLocation   = errors.New("location missing from distance matrix")
)

// CostHistory supplies a shop's historical cost per order by vehicle type. A
// shop without history yields an empty or all-zero map.
type CostHistory interface {
	GetAverageOrderDeliveryCost(ctx context.Context, shopID string, day time.Time) (map[models.VehicleType]float64, error)
}

// EventHook observes every handled event, after re-planning.
type EventHook func(ev *models.Event)

type Option func(*Dispatcher)

func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

func WithEventHook(h EventHook) Option {
	return func(d *Dispatcher) { d.hooks = append(d.hooks, h) }
}

// Dispatcher replays one day: it owns the event queue, turns shop and courier
// effects into scheduled events and re-plans shops as the day unfolds. It is
// single-threaded; nothing it owns may be touched concurrently during RunDay.
type Dispatcher struct {
	cfg       *models.Config
	distances geo.Distancer
	log       logger.Logger
	hooks     []EventHook

	queue       *models.EventQueue
	perms       *permutations.Table
	optimizer   *Optimizer
	reallocator *Reallocator

	day      time.Time
	now      time.Time
	shops    []*models.Shop
	shopByID map[string]*models.Shop
	couriers []*models.Courier
	orders   []*models.Order
	dirty    map[string]bool
	executed []*models.DeliveryBundle

	created         bool
	err             error
	processed       int
	reallocFailures int
}

func NewDispatcher(cfg *models.Config, distances geo.Distancer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:       cfg,
		distances: distances,
		log:       logger.NopLogger{},
		queue:     models.NewEventQueue(cfg.Simulation.QueueCapacity),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RunDay simulates one day and reports how it ended. The captured fault of a
// failed day is available from Err.
func (d *Dispatcher) RunDay(ctx context.Context, shops []*models.Shop, couriers []*models.Courier, orders []*models.Order, history CostHistory) (status Status) {
	d.created = false
	d.err = nil
	switch {
	case len(orders) == 0:
		return StatusNoOrders
	case len(shops) == 0:
		return StatusNoShops
	case len(couriers) == 0:
		return StatusNoCouriers
	}

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.err = fmt.Errorf("panic during day run: %v", r)
			status = StatusException
		}
		d.teardown(status, started)
	}()

	if err := d.init(ctx, shops, couriers, orders, history); err != nil {
		d.err = err
		return StatusException
	}
	if err := d.run(); err != nil {
		d.err = err
		return StatusException
	}
	d.created = true
	return StatusOK
}

func (d *Dispatcher) Err() error { return d.err }

// IsCreated reports whether the last RunDay completed.
func (d *Dispatcher) IsCreated() bool { return d.created }

// ExecutedDeliveries returns the dispatched bundles in dispatch order.
func (d *Dispatcher) ExecutedDeliveries() []*models.DeliveryBundle {
	return append([]*models.DeliveryBundle(nil), d.executed...)
}

func (d *Dispatcher) QueueCount() int { return d.queue.Len() }

func (d *Dispatcher) QueueCapacity() int { return d.queue.Capacity() }

func (d *Dispatcher) Processed() int { return d.processed }

func (d *Dispatcher) Now() time.Time { return d.now }

func (d *Dispatcher) Summary() Summary { return Summarize(d.orders, d.executed) }

// ActiveBundles returns the bundles whose alerts are still waiting in the queue.
func (d *Dispatcher) ActiveBundles() []*models.DeliveryBundle {
	var out []*models.DeliveryBundle
	for i := 0; i < d.queue.Len(); i++ {
		ev := d.queue.Item(i)
		if ev.Status != models.EventActive {
			continue
		}
		if ev.Type != models.EventDeliveryAlert && ev.Type != models.EventTaxiDeliveryAlert {
			continue
		}
		if b, ok := ev.Data.(*models.DeliveryBundle); ok {
			out = append(out, b)
		}
	}
	return out
}

func (d *Dispatcher) init(ctx context.Context, shops []*models.Shop, couriers []*models.Courier, orders []*models.Order, history CostHistory) error {
	sim := d.cfg.Simulation
	d.queue.Clear()
	d.perms = permutations.NewTable(permutations.DefaultMaxSize)
	d.optimizer = NewOptimizer(d.perms, d.distances, sim.MaxCandidateOrders, sim.TwoOptIterations)
	d.reallocator = NewReallocator(d.planShop, sim.MaxReallocationIterations)
	d.shops = shops
	d.couriers = couriers
	d.orders = orders
	d.executed = nil
	d.processed = 0
	d.reallocFailures = 0
	d.dirty = make(map[string]bool, len(shops))
	d.day = sim.Date
	if d.day.IsZero() {
		d.day = dayOf(orders)
	}

	d.shopByID = make(map[string]*models.Shop, len(shops))
	for _, s := range shops {
		point, ok := d.distances.Index(s.Location)
		if !ok {
			return fmt.Errorf("%w: shop %s", ErrUnknownLocation, s.ID)
		}
		s.Point = point
		d.shopByID[s.ID] = s
	}

	byShop := make(map[string][]*models.Order, len(shops))
	for _, o := range orders {
		if _, ok := d.shopByID[o.ShopID]; !ok {
			return fmt.Errorf("%w: order %s references %q", ErrUnknownShop, o.ID, o.ShopID)
		}
		point, ok := d.distances.Index(o.Location)
		if !ok {
			return fmt.Errorf("%w: order %s", ErrUnknownLocation, o.ID)
		}
		o.Point = point
		byShop[o.ShopID] = append(byShop[o.ShopID], o)
	}

	for i, c := range couriers {
		if c.IsTaxi() || !c.Vehicle.Valid() {
			return fmt.Errorf("%w: courier %s has %q", ErrUnknownVehicle, c.ID, c.Vehicle)
		}
		profile, _ := d.cfg.Profile(c.Vehicle)
		point, ok := d.distances.Index(c.Location)
		if !ok {
			return fmt.Errorf("%w: courier %s", ErrUnknownLocation, c.ID)
		}
		c.Prepare(i, profile, point)
	}

	taxiProfile, _ := d.cfg.Profile(models.VehicleTaxi)
	for i, s := range shops {
		averages := map[models.VehicleType]float64{}
		if history != nil {
			got, err := history.GetAverageOrderDeliveryCost(ctx, s.ID, d.day)
			if err != nil {
				return fmt.Errorf("load cost history for shop %s: %w", s.ID, err)
			}
			averages = got
		}
		var taxi *models.Courier
		if sim.TaxiEnabled {
			taxi = models.NewTaxi(s, taxiProfile)
			taxi.Handle = len(couriers) + i
		}
		s.BeginDay(byShop[s.ID], averages, taxi)
	}

	for _, o := range orders {
		if _, err := d.queue.AddEvent(o.AssembledAt, models.EventOrderAssembled, o); err != nil {
			return fmt.Errorf("schedule order %s: %w", o.ID, err)
		}
	}
	var start time.Time
	for _, c := range couriers {
		if _, err := d.queue.AddEvent(c.WorkStart, models.EventCourierWorkStart, c); err != nil {
			return fmt.Errorf("schedule shift start of %s: %w", c.ID, err)
		}
		if _, err := d.queue.AddEvent(c.WorkEnd, models.EventCourierWorkEnd, c); err != nil {
			return fmt.Errorf("schedule shift end of %s: %w", c.ID, err)
		}
		if start.IsZero() || c.WorkStart.Before(start) {
			start = c.WorkStart
		}
	}
	d.queue.SetQueueCurrentItem(start)
	d.now = start

	d.log.Infof("day %s: %d shops, %d couriers, %d orders, first shift at %s",
		d.day.Format("2006-01-02"), len(shops), len(couriers), len(orders), start.Format(time.RFC3339))
	return nil
}

func (d *Dispatcher) run() error {
	// shops served by taxis alone need a first plan before any courier shows up
	for _, s := range d.shops {
		d.markDirty(s.ID)
	}
	if err := d.replan(); err != nil {
		return err
	}

	for ev := d.queue.GetNext(); ev != nil; ev = d.queue.GetNext() {
		d.now = ev.Time
		effects, err := d.handle(ev)
		if err != nil {
			return fmt.Errorf("%s event %d at %s: %w", ev.Type, ev.Index, ev.Time.Format(time.RFC3339), err)
		}
		d.queue.Complete(ev.Index)
		eventsProcessed.WithLabelValues(ev.Type).Inc()

		if err := d.apply(effects); err != nil {
			return err
		}
		if err := d.replan(); err != nil {
			return err
		}
		d.processed++
		for _, h := range d.hooks {
			h(ev)
		}
	}
	return nil
}

func (d *Dispatcher) teardown(status Status, started time.Time) {
	for _, c := range d.couriers {
		c.AssignedShop = ""
	}
	dayRuns.WithLabelValues(status.String()).Inc()
	if capacity := d.queue.Capacity(); capacity > 0 {
		queueOccupancy.Set(float64(d.queue.Len()) / float64(capacity))
	}
	if status != StatusOK {
		d.log.Errorf("day %s failed with status %s after %d events: %v",
			d.day.Format("2006-01-02"), status, d.processed, d.err)
		return
	}
	d.log.Infof("day %s completed: %d events, %d bundles dispatched, %d reallocation caps hit, took %s",
		d.day.Format("2006-01-02"), d.processed, len(d.executed), d.reallocFailures, time.Since(started).Round(time.Millisecond))
}

// apply turns effects into dirty shops and follow-up events.
func (d *Dispatcher) apply(effects []models.Effect) error {
	for _, e := range effects {
		switch e.Kind {
		case models.EffectOrderAssembled:
			d.markDirty(e.ShopID)
		case models.EffectCourierReady:
			for _, s := range d.shops {
				if d.reachable(e.Courier, s) {
					d.markDirty(s.ID)
				}
			}
		case models.EffectCourierLeft:
			d.markProposing(e.Courier)
		case models.EffectDeliveryStarted:
			d.markDirty(e.ShopID)
			if !e.Courier.IsTaxi() {
				d.markProposing(e.Courier)
			}
		case models.EffectShopDelivered:
			if _, err := d.queue.AddEvent(e.At, models.EventShopDelivered, d.shopByID[e.ShopID]); err != nil {
				return fmt.Errorf("schedule shop %s delivered: %w", e.ShopID, err)
			}
		}
	}
	return nil
}

func (d *Dispatcher) markDirty(shopID string) {
	if s, ok := d.shopByID[shopID]; ok && !s.Closed() {
		d.dirty[shopID] = true
	}
}

func (d *Dispatcher) markProposing(c *models.Courier) {
	for _, s := range d.shops {
		if s.Proposes(c) {
			d.markDirty(s.ID)
		}
	}
}

// reachable reports whether an owned courier could currently serve the shop.
func (d *Dispatcher) reachable(c *models.Courier, s *models.Shop) bool {
	if c.IsTaxi() {
		return c.ShopID == s.ID
	}
	if limit := c.Profile.MaxShopDistance; limit > 0 && d.distances.Distance(c.Point, s.Point) > limit {
		return false
	}
	return true
}

// freeCouriers lists the owned couriers the shop may use at now.
func (d *Dispatcher) freeCouriers(now time.Time, s *models.Shop, exclude *models.Courier) []*models.Courier {
	var out []*models.Courier
	for _, c := range d.couriers {
		if c == exclude || !c.Ready() || !c.OnShift(now) {
			continue
		}
		if c.AssignedShop != "" && c.AssignedShop != s.ID {
			continue
		}
		if d.reachable(c, s) {
			out = append(out, c)
		}
	}
	return out
}

func (d *Dispatcher) planShop(now time.Time, s *models.Shop, exclude *models.Courier) []*models.DeliveryBundle {
	if s.Closed() {
		return nil
	}
	// the shop is being planned already, so the assembled effects only need logging
	for _, e := range s.AssembleDue(now) {
		d.log.Debugw("order assembled while planning", map[string]any{
			"shop":  e.ShopID,
			"order": e.Order.ID,
			"at":    e.At.Format(time.RFC3339),
		})
	}
	return d.optimizer.Plan(now, s, d.freeCouriers(now, s, exclude), s.Taxi)
}

// replan recomputes the dirty shops, settles couriers claimed by several
// shops and republishes every shipment that changed.
func (d *Dispatcher) replan() error {
	if len(d.dirty) == 0 {
		return nil
	}
	proposals := make(map[string][]*models.DeliveryBundle, len(d.shops))
	for _, s := range d.shops {
		if d.dirty[s.ID] {
			proposals[s.ID] = d.planShop(d.now, s, nil)
		} else {
			proposals[s.ID] = s.PossibleShipment
		}
	}
	clear(d.dirty)

	if len(multiShopCouriers(d.shops, proposals)) > 0 {
		res, err := d.reallocator.Resolve(d.now, d.shops, proposals)
		switch {
		case errors.Is(err, ErrReallocationNotConverged):
			d.reallocFailures++
			reallocationPasses.WithLabelValues("capped").Inc()
			d.log.Warnf("reallocation at %s: %v", d.now.Format(time.RFC3339), err)
		case err != nil:
			return err
		default:
			reallocationPasses.WithLabelValues("converged").Inc()
		}
		d.log.Debugw("reallocation pass", map[string]any{
			"at":         d.now.Format(time.RFC3339),
			"iterations": res.Iterations,
			"pinned":     res.Pinned,
		})
	}

	for _, s := range d.shops {
		next := proposals[s.ID]
		if sameShipment(s.PossibleShipment, next) {
			continue
		}
		if err := d.publish(s, next); err != nil {
			return err
		}
	}
	return nil
}

// publish replaces a shop's shipment, cancelling the alerts of the bundles it
// supersedes before queueing the new ones.
func (d *Dispatcher) publish(s *models.Shop, bundles []*models.DeliveryBundle) error {
	stale := s.ReplaceShipment(bundles)
	d.queue.DisableItems(stale...)
	threshold := d.cfg.Simulation.AlertThreshold
	for _, b := range bundles {
		at := alertTime(d.now, b, s.AverageCost[b.Courier.Vehicle], threshold)
		idx, err := d.queue.AddEvent(at, alertEventType(b), b)
		if err != nil {
			return fmt.Errorf("schedule alert for shop %s: %w", s.ID, err)
		}
		b.QueueIndex = idx
		d.log.Debugw("bundle proposed", map[string]any{
			"shop":    s.ID,
			"courier": b.Courier.ID,
			"orders":  b.Size(),
			"cost":    b.Cost,
			"alert":   at.Format(time.RFC3339),
		})
	}
	return nil
}

func sameShipment(a, b []*models.DeliveryBundle) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func dayOf(orders []*models.Order) time.Time {
	var first time.Time
	for _, o := range orders {
		if first.IsZero() || o.AssembledAt.Before(first) {
			first = o.AssembledAt
		}
	}
	y, m, day := first.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, first.Location())
}
