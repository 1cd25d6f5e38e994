package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shopWithOrders(n int) (*Shop, []*Order) {
	s := &Shop{ID: "s1"}
	orders := make([]*Order, n)
	for i := range orders {
		orders[i] = &Order{
			ID:          string(rune('a' + i)),
			ShopID:      "s1",
			AssembledAt: base.Add(time.Duration(i) * 10 * time.Minute),
			Deadline:    base.Add(2 * time.Hour),
		}
	}
	s.BeginDay(orders, map[VehicleType]float64{VehicleCar: 40}, nil)
	return s, orders
}

func TestShopBeginDay(t *testing.T) {
	s, orders := shopWithOrders(3)
	for i, o := range orders {
		assert.Equal(t, i, o.Index)
		assert.Equal(t, OrderStatusPending, o.Status)
	}
	assert.Equal(t, 40.0, s.AverageCost[VehicleCar])
	assert.False(t, s.Closed())
}

func TestShopAssemble(t *testing.T) {
	s, orders := shopWithOrders(3)

	e, err := s.Assemble(base, orders[0])
	require.NoError(t, err)
	assert.Equal(t, EffectOrderAssembled, e.Kind)
	assert.Equal(t, OrderStatusAssembled, orders[0].Status)

	e, err = s.Assemble(base, orders[0])
	require.NoError(t, err)
	assert.True(t, e.IsNone(), "assembling twice is a no-op")

	_, err = s.Assemble(base, &Order{ID: "x", ShopID: "other"})
	assert.ErrorIs(t, err, ErrUnknownOrder)

	effects := s.AssembleDue(base.Add(15 * time.Minute))
	require.Len(t, effects, 1)
	assert.Same(t, orders[1], effects[0].Order)
	assert.Equal(t, OrderStatusPending, orders[2].Status)
}

func TestShopDeliveryFlow(t *testing.T) {
	s, orders := shopWithOrders(2)
	s.AssembleDue(base.Add(time.Hour))
	c := NewCourier("c1", VehicleCar, minuteProfile(), Location{}, base, base.Add(8*time.Hour))
	b1 := &DeliveryBundle{ShopID: "s1", Courier: c, Orders: orders[:1], QueueIndex: 4,
		Route: []Stop{{OrderID: "a", Arrival: base.Add(70 * time.Minute)}}}
	b2 := &DeliveryBundle{ShopID: "s1", Courier: c, Orders: orders[1:], QueueIndex: 9,
		Route: []Stop{{OrderID: "b", Arrival: base.Add(80 * time.Minute)}}}

	assert.Empty(t, s.ReplaceShipment([]*DeliveryBundle{b1, b2}))
	assert.True(t, s.Proposed(b1))
	assert.True(t, s.Proposes(c))

	require.NoError(t, s.StartDelivery(base.Add(time.Hour), b1))
	assert.False(t, s.Proposed(b1))
	assert.Equal(t, OrderStatusInDelivery, orders[0].Status)
	assert.Error(t, s.StartDelivery(base.Add(time.Hour), b1), "orders already left")

	effects := s.FinishDelivery(base.Add(70*time.Minute), b1)
	require.Len(t, effects, 1)
	assert.Equal(t, EffectDeliveryFinished, effects[0].Kind)
	assert.Equal(t, base.Add(70*time.Minute), orders[0].DeliveredAt)

	assert.Equal(t, []int{9}, s.ReplaceShipment([]*DeliveryBundle{b2}))
	require.NoError(t, s.StartDelivery(base.Add(time.Hour), b2))
	effects = s.FinishDelivery(base.Add(80*time.Minute), b2)
	require.Len(t, effects, 2)
	assert.Equal(t, EffectShopDelivered, effects[1].Kind)
	assert.True(t, s.AllDelivered())
	assert.Equal(t, 2, s.Delivered())

	// finishing twice does not count orders again
	s.FinishDelivery(base.Add(90*time.Minute), b2)
	assert.Equal(t, 2, s.Delivered())
}

func TestOrderOpen(t *testing.T) {
	o := &Order{Status: OrderStatusAssembled, AssembledAt: base, Deadline: base.Add(time.Hour)}
	assert.True(t, o.Open(base))
	assert.False(t, o.Open(base.Add(-time.Minute)))
	assert.False(t, o.Open(base.Add(time.Hour)))
	o.Status = OrderStatusInDelivery
	assert.False(t, o.Open(base))
}
