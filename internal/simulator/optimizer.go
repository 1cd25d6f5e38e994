package simulator

import (
	"math/bits"
	"sort"
	"time"

	"github.com/chrisdamba/dispatchsim/internal/geo"
	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/chrisdamba/dispatchsim/internal/permutations"
)

const costEpsilon = 1e-9

// Optimizer builds delivery bundles for one shop at a point in time. It never
// mutates shops, orders or couriers: the orders already placed in a bundle
// during a pass live in a local orderSet.
type Optimizer struct {
	perms            *permutations.Table
	distances        geo.Distancer
	maxCandidates    int
	twoOptIterations int
}

func NewOptimizer(perms *permutations.Table, distances geo.Distancer, maxCandidates, twoOptIterations int) *Optimizer {
	if maxCandidates <= 0 || maxCandidates > perms.MaxSize() {
		maxCandidates = perms.MaxSize()
	}
	if twoOptIterations <= 0 {
		twoOptIterations = 1
	}
	return &Optimizer{
		perms:            perms,
		distances:        distances,
		maxCandidates:    maxCandidates,
		twoOptIterations: twoOptIterations,
	}
}

// route is a priced visiting order.
type route struct {
	orders []*models.Order
	res    models.DeliveryCheckResult
}

func (r *route) size() int { return len(r.orders) }

// orderSet is a bitset over a shop's order indexes.
type orderSet []uint64

func newOrderSet(n int) orderSet { return make(orderSet, (n+63)/64) }

func (s orderSet) has(i int) bool { return s[i/64]&(1<<(uint(i)%64)) != 0 }

func (s orderSet) add(i int) { s[i/64] |= 1 << (uint(i) % 64) }

// Plan returns every non-conflicting bundle the shop can propose at now.
// Each round emits the globally best bundle, most orders then lowest cost,
// over the owned couriers still unused and the shop's taxi. An owned courier
// is used at most once; the taxi stays available until nothing is left that
// it can carry. On a tie the owned courier wins.
func (o *Optimizer) Plan(now time.Time, shop *models.Shop, couriers []*models.Courier, taxi *models.Courier) []*models.DeliveryBundle {
	taken := newOrderSet(len(shop.Orders))
	pool := append([]*models.Courier(nil), couriers...)
	var out []*models.DeliveryBundle

	for {
		var best *route
		var chosen *models.Courier
		bestAt := -1
		for i, c := range pool {
			r := o.bestRoute(now, shop, c, taken)
			if r == nil {
				continue
			}
			if best == nil || betterOwned(r, best) {
				best, chosen, bestAt = r, c, i
			}
		}
		if taxi != nil {
			if r := o.bestRoute(now, shop, taxi, taken); r != nil && (best == nil || betterOwned(r, best)) {
				best, chosen, bestAt = r, taxi, -1
			}
		}
		if best == nil {
			return out
		}

		out = append(out, o.bundle(now, shop, chosen, best))
		for _, ord := range best.orders {
			taken.add(ord.Index)
		}
		if bestAt >= 0 {
			pool = append(pool[:bestAt], pool[bestAt+1:]...)
		}
	}
}

// BestForCourier returns the best bundle one courier can carry from the shop
// at now, or nil.
func (o *Optimizer) BestForCourier(now time.Time, shop *models.Shop, c *models.Courier) *models.DeliveryBundle {
	r := o.bestRoute(now, shop, c, newOrderSet(len(shop.Orders)))
	if r == nil {
		return nil
	}
	return o.bundle(now, shop, c, r)
}

// Verify re-prices a bundle's visiting order for a start at now.
func (o *Optimizer) Verify(now time.Time, shop *models.Shop, b *models.DeliveryBundle) (*models.DeliveryBundle, bool) {
	legs := make([]float64, len(b.Orders)+1)
	deadlines := make([]time.Time, len(b.Orders))
	res, ok := o.evaluate(now, shop, b.Courier, b.Orders, legs, deadlines)
	if !ok {
		return nil, false
	}
	fresh := o.bundle(now, shop, b.Courier, &route{orders: b.Orders, res: res})
	fresh.ID = b.ID
	return fresh, true
}

func (o *Optimizer) bestRoute(now time.Time, shop *models.Shop, c *models.Courier, taken orderSet) *route {
	cands := o.candidates(now, shop, c, taken)
	if len(cands) == 0 {
		return nil
	}
	n := min(len(cands), o.maxCandidates)
	best := o.search(now, shop, c, cands[:n])
	if best != nil && len(cands) > n {
		best = o.grow(now, shop, c, best, cands[n:])
	}
	return best
}

// candidates lists the orders the courier could carry on its own, soonest
// deadline first.
func (o *Optimizer) candidates(now time.Time, shop *models.Shop, c *models.Courier, taken orderSet) []*models.Order {
	legs := make([]float64, 2)
	deadlines := make([]time.Time, 1)
	single := make([]*models.Order, 1)
	var out []*models.Order
	for _, ord := range shop.Orders {
		if taken.has(ord.Index) || ord.Status != models.OrderStatusAssembled || !ord.Open(now) {
			continue
		}
		single[0] = ord
		if _, ok := o.evaluate(now, shop, c, single, legs, deadlines); !ok {
			continue
		}
		out = append(out, ord)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Deadline.Equal(out[j].Deadline) {
			return out[i].Deadline.Before(out[j].Deadline)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// search tries every subset of cands in every visiting order. A subset that
// contains a known infeasible subset is skipped: dropping a stop never makes a
// trip later.
func (o *Optimizer) search(now time.Time, shop *models.Shop, c *models.Courier, cands []*models.Order) *route {
	n := len(cands)
	full := 1 << n
	infeasible := make([]bool, full)
	members := make([]*models.Order, 0, n)
	var best *route

	for mask := 1; mask < full; mask++ {
		k := bits.OnesCount(uint(mask))
		if best != nil && !c.IsTaxi() && k < best.size() {
			continue
		}
		if c.Profile.MaxOrders > 0 && k > c.Profile.MaxOrders {
			infeasible[mask] = true
			continue
		}
		if containsInfeasible(mask, infeasible) {
			infeasible[mask] = true
			continue
		}
		members = members[:0]
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				members = append(members, cands[i])
			}
		}
		if c.Profile.MaxWeight > 0 && models.TotalWeight(members) > c.Profile.MaxWeight {
			infeasible[mask] = true
			continue
		}
		r := o.bestOrdering(now, shop, c, members)
		if r == nil {
			infeasible[mask] = true
			continue
		}
		if best == nil || betterForCourier(c, r, best) {
			best = r
		}
	}
	return best
}

func containsInfeasible(mask int, infeasible []bool) bool {
	for rest := mask; rest != 0; rest &= rest - 1 {
		bit := rest & -rest
		if infeasible[mask&^bit] {
			return true
		}
	}
	return false
}

// bestOrdering evaluates every permutation of members and keeps the cheapest
// feasible one.
func (o *Optimizer) bestOrdering(now time.Time, shop *models.Shop, c *models.Courier, members []*models.Order) *route {
	k := len(members)
	seq := make([]*models.Order, k)
	legs := make([]float64, k+1)
	deadlines := make([]time.Time, k)
	var best *route
	for _, perm := range o.perms.ForSize(k) {
		for i, p := range perm {
			seq[i] = members[p]
		}
		res, ok := o.evaluate(now, shop, c, seq, legs, deadlines)
		if !ok {
			continue
		}
		if best == nil || res.Cost < best.res.Cost-costEpsilon {
			best = &route{orders: append([]*models.Order(nil), seq...), res: res}
		}
	}
	return best
}

// evaluate fills legs and deadlines for seq and runs the courier's check.
func (o *Optimizer) evaluate(now time.Time, shop *models.Shop, c *models.Courier, seq []*models.Order, legs []float64, deadlines []time.Time) (models.DeliveryCheckResult, bool) {
	legs = legs[:len(seq)+1]
	deadlines = deadlines[:len(seq)]
	legs[0] = o.distances.Distance(c.Point, shop.Point)
	prev := shop.Point
	var assembled time.Time
	weight := 0.0
	for i, ord := range seq {
		legs[i+1] = o.distances.Distance(prev, ord.Point)
		deadlines[i] = ord.Deadline
		weight += ord.Weight
		if ord.AssembledAt.After(assembled) {
			assembled = ord.AssembledAt
		}
		prev = ord.Point
	}
	return c.DeliveryCheck(now, assembled, legs, deadlines, weight)
}

func (o *Optimizer) bundle(now time.Time, shop *models.Shop, c *models.Courier, r *route) *models.DeliveryBundle {
	legs := make([]float64, len(r.orders)+1)
	legs[0] = o.distances.Distance(c.Point, shop.Point)
	prev := shop.Point
	for i, ord := range r.orders {
		legs[i+1] = o.distances.Distance(prev, ord.Point)
		prev = ord.Point
	}
	return models.NewDeliveryBundle(now, shop, c, r.orders, legs, r.res)
}

// betterForCourier compares two routes of the same courier. Owned couriers
// carry as many orders as they can; taxis are paid per trip, so they go for
// the cheapest order.
func betterForCourier(c *models.Courier, a, b *route) bool {
	if c.IsTaxi() {
		return betterTaxi(a, b)
	}
	return betterOwned(a, b)
}

func betterOwned(a, b *route) bool {
	if a.size() != b.size() {
		return a.size() > b.size()
	}
	return a.res.Cost < b.res.Cost-costEpsilon
}

func betterTaxi(a, b *route) bool {
	ca := a.res.Cost / float64(a.size())
	cb := b.res.Cost / float64(b.size())
	if ca < cb-costEpsilon {
		return true
	}
	if cb < ca-costEpsilon {
		return false
	}
	return a.size() > b.size()
}
