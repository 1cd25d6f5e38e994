package simulator

import (
	"testing"
	"time"

	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestAlertTime(t *testing.T) {
	now := at(10, 0)
	owned := models.NewCourier("c1", models.VehicleBicycle, testProfile(), km(0, 0), at(9, 0), at(18, 0))
	taxi := &models.Courier{ID: "taxi-s1", Vehicle: models.VehicleTaxi}
	bundle := func(c *models.Courier, reserve time.Duration, cost float64) *models.DeliveryBundle {
		return &models.DeliveryBundle{
			Courier:     c,
			Orders:      make([]*models.Order, 2),
			Cost:        cost,
			ReserveTime: reserve,
			WindowEnd:   now.Add(reserve),
		}
	}
	threshold := 10 * time.Minute

	tests := []struct {
		name    string
		bundle  *models.DeliveryBundle
		average float64
		want    time.Time
	}{
		{"reserve at threshold", bundle(owned, threshold, 100), 0, now},
		{"reserve below threshold", bundle(owned, time.Minute, 100), 0, now},
		{"no history waits", bundle(owned, time.Hour, 10), 0, at(10, 50)},
		{"cheaper than history", bundle(owned, time.Hour, 10), 5, now},
		{"dearer than history", bundle(owned, time.Hour, 30), 5, at(10, 50)},
		{"taxi waits too", bundle(taxi, 30*time.Minute, 300), 100, at(10, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, alertTime(now, tt.bundle, tt.average, threshold))
		})
	}

	assert.Equal(t, models.EventDeliveryAlert, alertEventType(bundle(owned, time.Hour, 1)))
	assert.Equal(t, models.EventTaxiDeliveryAlert, alertEventType(bundle(taxi, time.Hour, 1)))
}

func TestAlertTimeNeverInThePast(t *testing.T) {
	now := at(10, 0)
	b := &models.DeliveryBundle{
		Orders:      make([]*models.Order, 1),
		Cost:        10,
		ReserveTime: 20 * time.Minute,
		WindowEnd:   now.Add(5 * time.Minute),
	}
	assert.Equal(t, now, alertTime(now, b, 0, 10*time.Minute))
}
