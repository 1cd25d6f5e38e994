package models

import (
	"fmt"
	"time"
)

// VehicleProfile holds the speed, cost and capacity figures shared by every
// courier of one vehicle type.
type VehicleProfile struct {
	Speed           float64       `mapstructure:"speed"` // km/h
	HourlyRate      float64       `mapstructure:"hourly_rate"`
	Insurance       float64       `mapstructure:"insurance"`
	MaxWeight       float64       `mapstructure:"max_weight"` // 0 means unlimited
	MaxOrders       int           `mapstructure:"max_orders"` // 0 means unlimited
	MaxShopDistance float64       `mapstructure:"max_shop_distance"`
	ShopTime        time.Duration `mapstructure:"shop_time"`
	HandlingTime    time.Duration `mapstructure:"handling_time"`

	// taxi tariff
	BaseFare  float64       `mapstructure:"base_fare"`
	PerKmRate float64       `mapstructure:"per_km_rate"`
	CallDelay time.Duration `mapstructure:"call_delay"`
}

// Travel converts a distance in kilometres into travel time at the profile's speed.
func (p VehicleProfile) Travel(km float64) time.Duration {
	if p.Speed <= 0 || km <= 0 {
		return 0
	}
	return time.Duration(km / p.Speed * float64(time.Hour))
}

func (p VehicleProfile) validate(v VehicleType) error {
	if p.Speed <= 0 {
		return fmt.Errorf("vehicle %s: speed must be positive", v)
	}
	if p.MaxOrders < 0 || p.MaxWeight < 0 {
		return fmt.Errorf("vehicle %s: capacity cannot be negative", v)
	}
	if v == VehicleTaxi && p.BaseFare == 0 && p.PerKmRate == 0 {
		return fmt.Errorf("vehicle %s: tariff is empty", v)
	}
	return nil
}

func DefaultVehicleProfiles() map[VehicleType]VehicleProfile {
	return map[VehicleType]VehicleProfile{
		VehicleOnFoot: {
			Speed:           5,
			HourlyRate:      180,
			Insurance:       0.05,
			MaxWeight:       8,
			MaxOrders:       2,
			MaxShopDistance: 1.5,
			ShopTime:        3 * time.Minute,
			HandlingTime:    4 * time.Minute,
		},
		VehicleBicycle: {
			Speed:           14,
			HourlyRate:      220,
			Insurance:       0.08,
			MaxWeight:       15,
			MaxOrders:       4,
			MaxShopDistance: 4,
			ShopTime:        3 * time.Minute,
			HandlingTime:    4 * time.Minute,
		},
		VehicleCar: {
			Speed:           25,
			HourlyRate:      320,
			Insurance:       0.12,
			MaxWeight:       60,
			MaxOrders:       8,
			MaxShopDistance: 10,
			ShopTime:        5 * time.Minute,
			HandlingTime:    5 * time.Minute,
		},
		VehicleTaxi: {
			Speed:        30,
			MaxWeight:    40,
			MaxOrders:    4,
			ShopTime:     5 * time.Minute,
			HandlingTime: 3 * time.Minute,
			BaseFare:     150,
			PerKmRate:    25,
			CallDelay:    10 * time.Minute,
		},
	}
}
