package simulator

import (
	"math"
	"sort"

	"github.com/chrisdamba/dispatchsim/internal/models"
	"gonum.org/v1/gonum/stat"
)

// VehicleTotals aggregates the dispatched bundles of one vehicle type.
type VehicleTotals struct {
	Vehicle  models.VehicleType `json:"vehicle"`
	Bundles  int                `json:"bundles"`
	Orders   int                `json:"orders"`
	Cost     float64            `json:"cost"`
	Distance float64            `json:"distance_km"`
}

// Summary describes the outcome of a simulated day.
type Summary struct {
	Orders         int             `json:"orders"`
	Delivered      int             `json:"delivered"`
	Late           int             `json:"late"`
	Undelivered    int             `json:"undelivered"`
	Bundles        int             `json:"bundles"`
	TaxiBundles    int             `json:"taxi_bundles"`
	TotalCost      float64         `json:"total_cost"`
	MeanOrderCost  float64         `json:"mean_order_cost"`
	StdOrderCost   float64         `json:"std_order_cost"`
	MeanBundleSize float64         `json:"mean_bundle_size"`
	ByVehicle      []VehicleTotals `json:"by_vehicle"`
}

// Summarize computes day totals. Per-order cost statistics weigh every bundle
// by the number of orders it carried.
func Summarize(orders []*models.Order, executed []*models.DeliveryBundle) Summary {
	s := Summary{Orders: len(orders), Bundles: len(executed)}
	for _, o := range orders {
		if o.Status != models.OrderStatusDelivered {
			s.Undelivered++
			continue
		}
		s.Delivered++
		if o.Late() {
			s.Late++
		}
	}
	if len(executed) == 0 {
		return s
	}

	costs := make([]float64, len(executed))
	sizes := make([]float64, len(executed))
	byVehicle := make(map[models.VehicleType]*VehicleTotals)
	for i, b := range executed {
		costs[i] = b.OrderCost()
		sizes[i] = float64(b.Size())
		s.TotalCost += b.Cost
		if b.IsTaxi() {
			s.TaxiBundles++
		}
		v := b.Courier.Vehicle
		t, ok := byVehicle[v]
		if !ok {
			t = &VehicleTotals{Vehicle: v}
			byVehicle[v] = t
		}
		t.Bundles++
		t.Orders += b.Size()
		t.Cost += b.Cost
		t.Distance += b.Distance
	}

	mean, variance := stat.PopMeanVariance(costs, sizes)
	s.MeanOrderCost = mean
	s.StdOrderCost = math.Sqrt(variance)
	s.MeanBundleSize = stat.Mean(sizes, nil)

	for _, t := range byVehicle {
		s.ByVehicle = append(s.ByVehicle, *t)
	}
	sort.Slice(s.ByVehicle, func(i, j int) bool { return s.ByVehicle[i].Vehicle < s.ByVehicle[j].Vehicle })
	return s
}
