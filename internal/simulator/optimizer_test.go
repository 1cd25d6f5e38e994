package simulator

import (
	"testing"
	"time"

	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/chrisdamba/dispatchsim/internal/permutations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanPrefersTwoOrderBundle(t *testing.T) {
	now := at(10, 0)
	shop := newTestShop("s1", km(0, 0))
	o1 := newTestOrder("o1", "s1", km(1, 0), at(9, 59), at(11, 0))
	o2 := newTestOrder("o2", "s1", km(2, 0), now, at(11, 0))
	courier := newTestCourier("c1", km(0, 0))
	courier.Profile.MaxOrders = 2
	m := testMatrix(t, []*models.Shop{shop}, []*models.Courier{courier}, []*models.Order{o1, o2})
	readyShop(now, shop, []*models.Order{o1, o2}, nil)
	readyCourier(t, now, 0, courier)

	opt := NewOptimizer(permutations.NewTable(permutations.DefaultMaxSize), m, 8, 50)
	bundles := opt.Plan(now, shop, []*models.Courier{courier}, nil)

	require.Len(t, bundles, 1)
	b := bundles[0]
	assert.Equal(t, []string{"o1", "o2"}, orderIDs(b))
	assert.Same(t, courier, b.Courier)
	assert.InDelta(t, 2.0, b.Cost, 1e-6)
	assert.InDelta(t, 2.0, b.Distance, 1e-9)
	assert.WithinDuration(t, now.Add(58*time.Minute), b.WindowEnd, time.Millisecond)
	assert.Equal(t, -1, b.QueueIndex)
}

func TestPlanExcludesExpiredAndUnreachableOrders(t *testing.T) {
	now := at(10, 0)
	shop := newTestShop("s1", km(0, 0))
	expired := newTestOrder("expired", "s1", km(1, 0), at(9, 0), at(9, 30))
	tight := newTestOrder("tight", "s1", km(5, 0), at(9, 0), now.Add(2*time.Minute))
	fine := newTestOrder("fine", "s1", km(0, 2), at(9, 0), at(11, 0))
	courier := newTestCourier("c1", km(0, 0))
	orders := []*models.Order{expired, tight, fine}
	m := testMatrix(t, []*models.Shop{shop}, []*models.Courier{courier}, orders)
	readyShop(now, shop, orders, nil)
	readyCourier(t, now, 0, courier)

	opt := NewOptimizer(permutations.NewTable(permutations.DefaultMaxSize), m, 8, 50)
	bundles := opt.Plan(now, shop, []*models.Courier{courier}, nil)

	require.Len(t, bundles, 1)
	assert.Equal(t, []string{"fine"}, orderIDs(bundles[0]))
}

func TestPlanLeavesOrdersAndCouriersUntouched(t *testing.T) {
	now := at(10, 0)
	shop := newTestShop("s1", km(0, 0))
	orders := []*models.Order{
		newTestOrder("o1", "s1", km(1, 0), now, at(11, 0)),
		newTestOrder("o2", "s1", km(0, 1), now, at(11, 0)),
		newTestOrder("o3", "s1", km(2, 2), now, at(11, 0)),
	}
	c1 := newTestCourier("c1", km(0, 0))
	c2 := newTestCourier("c2", km(1, 1))
	m := testMatrix(t, []*models.Shop{shop}, []*models.Courier{c1, c2}, orders)
	readyShop(now, shop, orders, nil)
	readyCourier(t, now, 0, c1)
	readyCourier(t, now, 1, c2)

	opt := NewOptimizer(permutations.NewTable(permutations.DefaultMaxSize), m, 8, 50)
	bundles := opt.Plan(now, shop, []*models.Courier{c1, c2}, nil)
	require.NotEmpty(t, bundles)

	for _, o := range orders {
		assert.Equal(t, models.OrderStatusAssembled, o.Status, o.ID)
	}
	assert.Equal(t, models.CourierStatusReady, c1.Status)
	assert.Equal(t, models.CourierStatusReady, c2.Status)
	assert.Nil(t, shop.PossibleShipment)
}

func TestPlanNeverSharesOrdersOrCouriers(t *testing.T) {
	now := at(10, 0)
	shop := newTestShop("s1", km(0, 0))
	var orders []*models.Order
	for i, loc := range []models.Location{km(1, 0), km(2, 0), km(0, 1), km(0, 2), km(3, 1), km(1, 3)} {
		orders = append(orders, newTestOrder(string(rune('a'+i)), "s1", loc, now, at(10, 40)))
	}
	c1 := newTestCourier("c1", km(0, 0))
	c1.Profile.MaxOrders = 2
	c2 := newTestCourier("c2", km(0, 0))
	c2.Profile.MaxOrders = 2
	m := testMatrix(t, []*models.Shop{shop}, []*models.Courier{c1, c2}, orders)
	readyShop(now, shop, orders, nil)
	readyCourier(t, now, 0, c1)
	readyCourier(t, now, 1, c2)
	// same capacity as the couriers, so the cheaper couriers win every tie on size
	taxi := models.NewTaxi(shop, testTaxiProfile())
	taxi.Profile.MaxOrders = 2

	opt := NewOptimizer(permutations.NewTable(permutations.DefaultMaxSize), m, 8, 50)
	bundles := opt.Plan(now, shop, []*models.Courier{c1, c2}, taxi)

	seenOrders := map[string]bool{}
	seenCouriers := map[*models.Courier]bool{}
	total := 0
	for _, b := range bundles {
		if !b.IsTaxi() {
			assert.False(t, seenCouriers[b.Courier], "courier %s used twice", b.Courier.ID)
			seenCouriers[b.Courier] = true
		}
		for _, o := range b.Orders {
			assert.False(t, seenOrders[o.ID], "order %s bundled twice", o.ID)
			seenOrders[o.ID] = true
		}
		total += b.Size()
	}
	assert.Equal(t, len(orders), total)
	assert.Len(t, seenCouriers, 2)
}

func TestPlanTaxiCompetesForBundles(t *testing.T) {
	tests := []struct {
		name      string
		maxOrders int
		wantTaxi  bool
		wantCost  float64
	}{
		// the taxi carries all three while the courier could only take one
		{name: "taxi carries more", maxOrders: 1, wantTaxi: true, wantCost: 130},
		// same order count, the courier is far cheaper than the fare
		{name: "courier cheaper", maxOrders: 4, wantTaxi: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := at(10, 0)
			shop := newTestShop("s1", km(0, 0))
			orders := []*models.Order{
				newTestOrder("o1", "s1", km(1, 0), now, at(11, 0)),
				newTestOrder("o2", "s1", km(2, 0), now, at(11, 0)),
				newTestOrder("o3", "s1", km(3, 0), now, at(11, 0)),
			}
			courier := newTestCourier("c1", km(0, 0))
			courier.Profile.MaxOrders = tt.maxOrders
			m := testMatrix(t, []*models.Shop{shop}, []*models.Courier{courier}, orders)
			readyShop(now, shop, orders, nil)
			readyCourier(t, now, 0, courier)
			taxi := models.NewTaxi(shop, testTaxiProfile())

			opt := NewOptimizer(permutations.NewTable(permutations.DefaultMaxSize), m, 8, 50)
			bundles := opt.Plan(now, shop, []*models.Courier{courier}, taxi)

			require.Len(t, bundles, 1, "one bundle takes every order")
			assert.Equal(t, []string{"o1", "o2", "o3"}, orderIDs(bundles[0]))
			assert.Equal(t, tt.wantTaxi, bundles[0].IsTaxi())
			if tt.wantTaxi {
				// base fare plus three kilometres of stops
				assert.InDelta(t, tt.wantCost, bundles[0].Cost, 1e-9)
			}
		})
	}
}

func TestPlanTaxiTakesRemainingOrders(t *testing.T) {
	now := at(10, 0)
	shop := newTestShop("s1", km(0, 0))
	orders := []*models.Order{
		newTestOrder("o1", "s1", km(1, 0), now, at(11, 0)),
		newTestOrder("o2", "s1", km(2, 0), now, at(11, 0)),
		newTestOrder("o3", "s1", km(3, 0), now, at(11, 0)),
		newTestOrder("o4", "s1", km(4, 0), now, at(11, 0)),
		newTestOrder("o5", "s1", km(5, 0), now, at(11, 0)),
	}
	courier := newTestCourier("c1", km(0, 0))
	m := testMatrix(t, []*models.Shop{shop}, []*models.Courier{courier}, orders)
	readyShop(now, shop, orders, nil)
	readyCourier(t, now, 0, courier)
	taxi := models.NewTaxi(shop, testTaxiProfile())

	opt := NewOptimizer(permutations.NewTable(permutations.DefaultMaxSize), m, 8, 50)
	bundles := opt.Plan(now, shop, []*models.Courier{courier}, taxi)

	// both carry at most four; the courier is cheaper for the first four
	require.Len(t, bundles, 2)
	assert.Same(t, courier, bundles[0].Courier)
	assert.Len(t, bundles[0].Orders, 4)
	assert.True(t, bundles[1].IsTaxi())
	assert.Len(t, bundles[1].Orders, 1)

	seen := map[string]bool{}
	for _, b := range bundles {
		for _, id := range orderIDs(b) {
			assert.False(t, seen[id], "order %s planned twice", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, 5)
}

func TestTaxiPrefersLowerCostPerOrder(t *testing.T) {
	now := at(10, 0)
	shop := newTestShop("s1", km(0, 0))
	orders := []*models.Order{
		newTestOrder("near", "s1", km(1, 0), now, at(11, 0)),
		newTestOrder("far", "s1", km(30, 0), now, at(11, 0)),
	}
	m := testMatrix(t, []*models.Shop{shop}, nil, orders)
	readyShop(now, shop, orders, nil)
	taxi := models.NewTaxi(shop, testTaxiProfile())

	opt := NewOptimizer(permutations.NewTable(permutations.DefaultMaxSize), m, 8, 50)
	b := opt.BestForCourier(now, shop, taxi)

	// near alone costs 110 per order, both together 200 per order
	require.NotNil(t, b)
	assert.Equal(t, []string{"near"}, orderIDs(b))
}

func TestVerifyRepricesAtLaterStart(t *testing.T) {
	now := at(10, 0)
	shop := newTestShop("s1", km(0, 0))
	order := newTestOrder("o1", "s1", km(5, 0), now, at(10, 30))
	courier := newTestCourier("c1", km(0, 0))
	m := testMatrix(t, []*models.Shop{shop}, []*models.Courier{courier}, []*models.Order{order})
	readyShop(now, shop, []*models.Order{order}, nil)
	readyCourier(t, now, 0, courier)

	opt := NewOptimizer(permutations.NewTable(permutations.DefaultMaxSize), m, 8, 50)
	b := opt.BestForCourier(now, shop, courier)
	require.NotNil(t, b)

	fresh, ok := opt.Verify(at(10, 20), shop, b)
	require.True(t, ok)
	assert.Equal(t, b.ID, fresh.ID)
	assert.WithinDuration(t, at(10, 25), fresh.EndTime, time.Millisecond)

	_, ok = opt.Verify(at(10, 26), shop, b)
	assert.False(t, ok)
}

func TestGrowBeyondExhaustiveBound(t *testing.T) {
	now := at(10, 0)
	shop := newTestShop("s1", km(0, 0))
	var orders []*models.Order
	for i := 1; i <= 5; i++ {
		orders = append(orders, newTestOrder(string(rune('a'+i-1)), "s1", km(float64(i), 0), now, at(12, 0)))
	}
	courier := newTestCourier("c1", km(0, 0))
	courier.Profile.MaxOrders = 5
	m := testMatrix(t, []*models.Shop{shop}, []*models.Courier{courier}, orders)
	readyShop(now, shop, orders, nil)
	readyCourier(t, now, 0, courier)

	// only three candidates are searched exhaustively, the rest are inserted
	opt := NewOptimizer(permutations.NewTable(permutations.DefaultMaxSize), m, 3, 50)
	b := opt.BestForCourier(now, shop, courier)

	require.NotNil(t, b)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, orderIDs(b))
	assert.InDelta(t, 5.0, b.Distance, 1e-9)
}

func TestTwoOptUntanglesPath(t *testing.T) {
	shop := newTestShop("s1", km(0, 0))
	orders := []*models.Order{
		newTestOrder("a", "s1", km(3, 0), at(10, 0), at(11, 0)),
		newTestOrder("b", "s1", km(1, 0), at(10, 0), at(11, 0)),
		newTestOrder("c", "s1", km(2, 0), at(10, 0), at(11, 0)),
	}
	m := testMatrix(t, []*models.Shop{shop}, nil, orders)
	opt := NewOptimizer(permutations.NewTable(permutations.DefaultMaxSize), m, 8, 50)

	out := opt.twoOpt(shop.Point, orders)

	ids := []string{out[0].ID, out[1].ID, out[2].ID}
	assert.Equal(t, []string{"b", "c", "a"}, ids)
	assert.InDelta(t, 3.0, opt.pathDistance(shop.Point, out), 1e-9)
	assert.Equal(t, "a", orders[0].ID, "input must not be reordered")
}
