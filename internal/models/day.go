package models

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ShopHistory carries a shop's historical average cost per order, by vehicle type.
type ShopHistory struct {
	ShopID      string                  `json:"shop_id"`
	AverageCost map[VehicleType]float64 `json:"average_cost"`
}

// DayData is everything needed to replay one day: the shops, the courier
// roster with shift windows, the day's orders and historical averages.
type DayData struct {
	Date     time.Time     `json:"date"`
	Shops    []*Shop       `json:"shops"`
	Couriers []*Courier    `json:"couriers"`
	Orders   []*Order      `json:"orders"`
	History  []ShopHistory `json:"history,omitempty"`
}

func LoadDayData(path string) (*DayData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var day DayData
	if err := json.NewDecoder(file).Decode(&day); err != nil {
		return nil, fmt.Errorf("failed to decode day file %s: %w", path, err)
	}
	return &day, nil
}

func (d *DayData) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("failed to encode day file %s: %w", path, err)
	}
	return nil
}
