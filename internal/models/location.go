package models

import "fmt"

type Location struct {
	Lat float64 `json:"lat" parquet:"name=lat,type=DOUBLE"`
	Lon float64 `json:"lon" parquet:"name=lon,type=DOUBLE"`
}

// Key identifies a location to micro-degree precision. Points closer than that
// share a distance matrix row.
func (l Location) Key() string {
	return fmt.Sprintf("%.6f,%.6f", l.Lat, l.Lon)
}

func (l Location) String() string {
	return fmt.Sprintf("POINT(%f %f)", l.Lon, l.Lat)
}
