package simulator

import (
	"time"

	"github.com/chrisdamba/dispatchsim/internal/models"
)

// shouldFireNow decides whether a bundle is dispatched at once instead of
// waiting for a better proposal. average is the shop's historical cost per
// order for the bundle's vehicle type; zero means the shop has no history.
func shouldFireNow(b *models.DeliveryBundle, average float64, threshold time.Duration) bool {
	if b.ReserveTime <= threshold {
		return true
	}
	return average > 0 && b.OrderCost() <= average+costEpsilon
}

// alertTime is when the bundle's alert should run: now, or the last moment
// that still leaves the alert threshold before the window closes.
func alertTime(now time.Time, b *models.DeliveryBundle, average float64, threshold time.Duration) time.Time {
	if shouldFireNow(b, average, threshold) {
		return now
	}
	at := b.WindowEnd.Add(-threshold)
	if at.Before(now) {
		return now
	}
	return at
}

func alertEventType(b *models.DeliveryBundle) string {
	if b.IsTaxi() {
		return models.EventTaxiDeliveryAlert
	}
	return models.EventDeliveryAlert
}
