package simulator

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/chrisdamba/dispatchsim/internal/models"
)

var ErrReallocationNotConverged = errors.New("reallocation did not reach a fixed point")

// planFunc plans a shop's shipment with one courier left out (nil for none).
// It must honour Courier.AssignedShop pins.
type planFunc func(now time.Time, shop *models.Shop, exclude *models.Courier) []*models.DeliveryBundle

// Reallocator settles couriers proposed by more than one shop.
type Reallocator struct {
	plan          planFunc
	maxIterations int
}

type ReallocationResult struct {
	Iterations int
	Pinned     int
}

func NewReallocator(plan planFunc, maxIterations int) *Reallocator {
	if maxIterations < 1 {
		maxIterations = 1
	}
	return &Reallocator{plan: plan, maxIterations: maxIterations}
}

type shipmentTotals struct {
	cost   float64
	orders int
}

func totalsOf(bundles []*models.DeliveryBundle) shipmentTotals {
	var t shipmentTotals
	for _, b := range bundles {
		t.cost += b.Cost
		t.orders += b.Size()
	}
	return t
}

func (t shipmentTotals) add(o shipmentTotals) shipmentTotals {
	return shipmentTotals{cost: t.cost + o.cost, orders: t.orders + o.orders}
}

func (t shipmentTotals) sub(o shipmentTotals) shipmentTotals {
	return shipmentTotals{cost: t.cost - o.cost, orders: t.orders - o.orders}
}

// average is the cost per delivered order; a network delivering nothing is
// infinitely expensive.
func (t shipmentTotals) average() float64 {
	if t.orders <= 0 {
		return math.Inf(1)
	}
	return t.cost / float64(t.orders)
}

type multiShop struct {
	courier *models.Courier
	shops   []*models.Shop
}

// multiShopCouriers maps every owned courier to the shops proposing it and
// keeps those with more than one, ordered by courier handle.
func multiShopCouriers(shops []*models.Shop, proposals map[string][]*models.DeliveryBundle) []multiShop {
	byCourier := make(map[*models.Courier][]*models.Shop)
	for _, s := range shops {
		for _, b := range proposals[s.ID] {
			if b.IsTaxi() {
				continue
			}
			byCourier[b.Courier] = append(byCourier[b.Courier], s)
		}
	}
	var out []multiShop
	for c, list := range byCourier {
		if len(list) > 1 {
			out = append(out, multiShop{courier: c, shops: list})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].courier.Handle < out[j].courier.Handle })
	return out
}

func proposesCourier(bundles []*models.DeliveryBundle, c *models.Courier) bool {
	for _, b := range bundles {
		if b.Courier == c {
			return true
		}
	}
	return false
}

// Resolve pins every multi-shop courier to the shop where keeping it gives the
// lowest network-wide cost per order, re-plans the shops involved and repeats
// until no courier is claimed twice. proposals is updated in place. Pins are
// released before returning.
func (r *Reallocator) Resolve(now time.Time, shops []*models.Shop, proposals map[string][]*models.DeliveryBundle) (ReallocationResult, error) {
	var res ReallocationResult
	var pinned []*models.Courier
	defer func() {
		for _, c := range pinned {
			c.AssignedShop = ""
		}
	}()

	for {
		multi := multiShopCouriers(shops, proposals)
		if len(multi) == 0 {
			return res, nil
		}
		if res.Iterations >= r.maxIterations {
			return res, fmt.Errorf("%w after %d iterations", ErrReallocationNotConverged, res.Iterations)
		}
		res.Iterations++

		touched := make(map[string]bool)
		for _, m := range multi {
			// an earlier pin in this iteration may have released the courier already
			var candidates []*models.Shop
			for _, s := range m.shops {
				if proposesCourier(proposals[s.ID], m.courier) {
					candidates = append(candidates, s)
				}
			}
			if len(candidates) < 2 {
				continue
			}
			winner, without := r.choose(now, shops, candidates, m.courier, proposals)

			m.courier.AssignedShop = candidates[winner].ID
			pinned = append(pinned, m.courier)
			res.Pinned++
			for i, s := range candidates {
				if i != winner {
					proposals[s.ID] = without[i]
				}
				touched[s.ID] = true
			}
		}

		for _, s := range shops {
			if touched[s.ID] {
				proposals[s.ID] = r.plan(now, s, nil)
			}
		}
	}
}

// choose returns the index of the candidate shop that should keep the courier,
// together with every candidate's shipment planned without it.
func (r *Reallocator) choose(now time.Time, shops, candidates []*models.Shop, c *models.Courier, proposals map[string][]*models.DeliveryBundle) (int, [][]*models.DeliveryBundle) {
	var network shipmentTotals
	for _, s := range shops {
		network = network.add(totalsOf(proposals[s.ID]))
	}

	with := make([]shipmentTotals, len(candidates))
	without := make([][]*models.DeliveryBundle, len(candidates))
	withoutTotals := make([]shipmentTotals, len(candidates))
	for i, s := range candidates {
		with[i] = totalsOf(proposals[s.ID])
		without[i] = r.plan(now, s, c)
		withoutTotals[i] = totalsOf(without[i])
	}

	winner := -1
	bestAvg := math.Inf(1)
	for i := range candidates {
		total := network
		for j := range candidates {
			if j != i {
				total = total.sub(with[j]).add(withoutTotals[j])
			}
		}
		if avg := total.average(); winner < 0 || avg < bestAvg-costEpsilon {
			winner, bestAvg = i, avg
		}
	}
	return winner, without
}
