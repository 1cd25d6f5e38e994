package simulator

import (
	"time"

	"github.com/chrisdamba/dispatchsim/internal/models"
)

// grow extends a route with the remaining candidates one at a time. Each
// order goes in at its cheapest insertion point; routes the permutation
// table still covers are then reordered exhaustively, longer ones by 2-opt.
func (o *Optimizer) grow(now time.Time, shop *models.Shop, c *models.Courier, base *route, rest []*models.Order) *route {
	cur := base
	for _, ord := range rest {
		if c.Profile.MaxOrders > 0 && cur.size() >= c.Profile.MaxOrders {
			break
		}
		if c.Profile.MaxWeight > 0 && models.TotalWeight(cur.orders)+ord.Weight > c.Profile.MaxWeight {
			continue
		}
		inserted := o.insertCheapest(shop.Point, cur.orders, ord)
		if next := o.improve(now, shop, c, inserted); next != nil && (!c.IsTaxi() || betterTaxi(next, cur)) {
			cur = next
		}
	}
	return cur
}

func (o *Optimizer) improve(now time.Time, shop *models.Shop, c *models.Courier, seq []*models.Order) *route {
	if len(seq) <= o.perms.MaxSize() {
		return o.bestOrdering(now, shop, c, seq)
	}
	legs := make([]float64, len(seq)+1)
	deadlines := make([]time.Time, len(seq))
	improved := o.twoOpt(shop.Point, seq)
	for _, candidate := range [][]*models.Order{improved, seq} {
		if res, ok := o.evaluate(now, shop, c, candidate, legs, deadlines); ok {
			return &route{orders: candidate, res: res}
		}
	}
	return nil
}

// insertCheapest returns a copy of seq with ord placed where it adds the
// least distance to the open path starting at the shop.
func (o *Optimizer) insertCheapest(shopPoint int, seq []*models.Order, ord *models.Order) []*models.Order {
	bestAt := len(seq)
	bestAdded := -1.0
	prev := shopPoint
	for i := 0; i <= len(seq); i++ {
		added := o.distances.Distance(prev, ord.Point)
		if i < len(seq) {
			next := seq[i].Point
			added += o.distances.Distance(ord.Point, next) - o.distances.Distance(prev, next)
			prev = next
		}
		if bestAdded < 0 || added < bestAdded-costEpsilon {
			bestAt, bestAdded = i, added
		}
	}
	out := make([]*models.Order, 0, len(seq)+1)
	out = append(out, seq[:bestAt]...)
	out = append(out, ord)
	return append(out, seq[bestAt:]...)
}

// twoOpt shortens the path by reversing segments until no reversal helps or
// the iteration budget runs out.
func (o *Optimizer) twoOpt(shopPoint int, seq []*models.Order) []*models.Order {
	best := append([]*models.Order(nil), seq...)
	bestDist := o.pathDistance(shopPoint, best)
	n := len(best)
	for it := 0; it < o.twoOptIterations; it++ {
		improved := false
		for i := 0; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				candidate := twoOptSwap(best, i, k)
				if d := o.pathDistance(shopPoint, candidate); d+1e-6 < bestDist {
					best = candidate
					bestDist = d
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	return best
}

func twoOptSwap(seq []*models.Order, i, k int) []*models.Order {
	out := make([]*models.Order, len(seq))
	copy(out, seq[:i])
	pos := i
	for j := k; j >= i; j-- {
		out[pos] = seq[j]
		pos++
	}
	copy(out[pos:], seq[k+1:])
	return out
}

func (o *Optimizer) pathDistance(shopPoint int, seq []*models.Order) float64 {
	total := 0.0
	prev := shopPoint
	for _, ord := range seq {
		total += o.distances.Distance(prev, ord.Point)
		prev = ord.Point
	}
	return total
}
