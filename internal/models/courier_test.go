package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// one kilometre a minute, one cost unit a minute
func minuteProfile() VehicleProfile {
	return VehicleProfile{Speed: 60, HourlyRate: 60, MaxWeight: 10, MaxOrders: 3}
}

func TestCourierLifecycle(t *testing.T) {
	c := NewCourier("c1", VehicleBicycle, minuteProfile(), Location{}, base, base.Add(8*time.Hour))
	require.Equal(t, CourierStatusOffDuty, c.Status)

	e, err := c.BeginWork(base, Location{Lat: 1}, 3)
	require.NoError(t, err)
	assert.Equal(t, EffectCourierReady, e.Kind)
	assert.True(t, c.Ready())
	assert.Equal(t, 3, c.Point)

	_, err = c.BeginWork(base, Location{}, 0)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	b := &DeliveryBundle{ShopID: "s1", Courier: c, Route: []Stop{{OrderID: "o1", Location: Location{Lat: 2}, Point: 7}}}
	e, err = c.BeginDelivery(base, b)
	require.NoError(t, err)
	assert.Equal(t, EffectDeliveryStarted, e.Kind)
	assert.Equal(t, "s1", e.ShopID)
	assert.Equal(t, CourierStatusBusy, c.Status)

	_, err = c.BeginDelivery(base, b)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	end := base.Add(20 * time.Minute)
	e, err = c.EndDelivery(end, b)
	require.NoError(t, err)
	assert.Equal(t, EffectCourierReady, e.Kind)
	assert.Equal(t, 7, c.Point)
	assert.Equal(t, Location{Lat: 2}, c.Location)
	assert.Equal(t, end, c.LastDeliveryEnd)
	assert.Nil(t, c.Bundle)

	e, err = c.EndWork(end)
	require.NoError(t, err)
	assert.Equal(t, EffectCourierLeft, e.Kind)
	assert.Equal(t, CourierStatusOffDuty, c.Status)
}

func TestCourierEndWorkWhileBusyIsDeferred(t *testing.T) {
	c := NewCourier("c1", VehicleCar, minuteProfile(), Location{}, base, base.Add(time.Hour))
	_, err := c.BeginWork(base, Location{}, 0)
	require.NoError(t, err)
	b := &DeliveryBundle{Courier: c, Route: []Stop{{Point: 1}}}
	_, err = c.BeginDelivery(base, b)
	require.NoError(t, err)

	e, err := c.EndWork(base.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, e.IsNone())
	assert.Equal(t, CourierStatusBusy, c.Status)

	e, err = c.EndDelivery(base.Add(70*time.Minute), b)
	require.NoError(t, err)
	assert.Equal(t, EffectCourierLeft, e.Kind)
	assert.Equal(t, CourierStatusOffDuty, c.Status)
}

func TestTaxiStaysReady(t *testing.T) {
	shop := &Shop{ID: "s1", Point: 4}
	taxi := NewTaxi(shop, DefaultVehicleProfiles()[VehicleTaxi])
	assert.Equal(t, "taxi-s1", taxi.ID)
	assert.Equal(t, 4, taxi.Point)
	assert.True(t, taxi.IsTaxi())
	assert.True(t, taxi.OnShift(base.Add(-48*time.Hour)))

	b := &DeliveryBundle{Courier: taxi, Route: []Stop{{Point: 1}}}
	_, err := taxi.BeginDelivery(base, b)
	require.NoError(t, err)
	assert.True(t, taxi.Ready())

	e, err := taxi.EndDelivery(base, b)
	require.NoError(t, err)
	assert.True(t, e.IsNone())
	assert.Equal(t, 4, taxi.Point)

	_, err = taxi.EndWork(base)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDeliveryCheckOwned(t *testing.T) {
	c := NewCourier("c1", VehicleBicycle, minuteProfile(), Location{}, base, base.Add(8*time.Hour))
	c.Profile.ShopTime = 2 * time.Minute
	c.Profile.HandlingTime = time.Minute
	c.Profile.Insurance = 0.5
	now := base.Add(time.Hour)

	// 3 km to the shop, then 2 km and 1 km
	legs := []float64{3, 2, 1}
	deadlines := []time.Time{now.Add(30 * time.Minute), now.Add(12 * time.Minute)}
	res, ok := c.DeliveryCheck(now, now, legs, deadlines, 2)

	require.True(t, ok)
	// at shop 3m, leave 5m, first stop 7m, second 9m, done 10m
	assert.WithinDuration(t, now.Add(5*time.Minute), res.Departure, time.Millisecond)
	assert.WithinDuration(t, now.Add(10*time.Minute), res.Finish, time.Millisecond)
	assert.InDelta(t, (3*time.Minute).Seconds(), res.Reserve.Seconds(), 1e-3)
	assert.WithinDuration(t, now.Add(3*time.Minute), res.WindowEnd, time.Millisecond)
	assert.InDelta(t, 6.0, res.Distance, 1e-9)
	assert.InDelta(t, 15.0, res.Cost, 1e-6)
}

func TestDeliveryCheckWaitsForAssembly(t *testing.T) {
	c := NewCourier("c1", VehicleBicycle, minuteProfile(), Location{}, base, base.Add(8*time.Hour))
	assembled := base.Add(20 * time.Minute)

	res, ok := c.DeliveryCheck(base, assembled, []float64{1, 1}, []time.Time{base.Add(time.Hour)}, 1)

	require.True(t, ok)
	assert.Equal(t, assembled, res.Departure)
}

func TestDeliveryCheckRejects(t *testing.T) {
	now := base.Add(time.Hour)
	c := NewCourier("c1", VehicleBicycle, minuteProfile(), Location{}, base, now.Add(5*time.Minute))
	late := []time.Time{now.Add(time.Minute)}
	later := []time.Time{now.Add(time.Hour)}

	_, ok := c.DeliveryCheck(now, now, []float64{0, 2}, late, 1)
	assert.False(t, ok, "deadline")

	_, ok = c.DeliveryCheck(now, now, []float64{0, 2}, later, 11)
	assert.False(t, ok, "weight")

	_, ok = c.DeliveryCheck(now, now, []float64{0, 1, 1, 1, 1}, []time.Time{later[0], later[0], later[0], later[0]}, 1)
	assert.False(t, ok, "order count")

	_, ok = c.DeliveryCheck(now, now, []float64{0, 6}, later, 1)
	assert.False(t, ok, "shift end")

	assert.Panics(t, func() { c.DeliveryCheck(now, now, []float64{1}, late, 1) })
}

func TestDeliveryCheckTaxi(t *testing.T) {
	taxi := NewTaxi(&Shop{ID: "s1"}, VehicleProfile{Speed: 60, BaseFare: 100, PerKmRate: 10, CallDelay: 10 * time.Minute})
	now := base

	res, ok := taxi.DeliveryCheck(now, now, []float64{0, 4}, []time.Time{now.Add(30 * time.Minute)}, 1)

	require.True(t, ok)
	assert.WithinDuration(t, now.Add(14*time.Minute), res.Finish, time.Millisecond)
	assert.InDelta(t, 140.0, res.Cost, 1e-9)
	assert.InDelta(t, 4.0, res.Distance, 1e-9)
	assert.InDelta(t, (16 * time.Minute).Seconds(), res.Reserve.Seconds(), 1e-3)
}

func TestArrivalsMatchDeliveryCheck(t *testing.T) {
	c := NewCourier("c1", VehicleBicycle, minuteProfile(), Location{}, base, base.Add(8*time.Hour))
	c.Profile.HandlingTime = time.Minute
	legs := []float64{1, 2, 3}

	arrivals := c.Arrivals(base, base, legs)

	require.Len(t, arrivals, 2)
	assert.WithinDuration(t, base.Add(3*time.Minute), arrivals[0], time.Millisecond)
	assert.WithinDuration(t, base.Add(7*time.Minute), arrivals[1], time.Millisecond)
}
