package models

import "strings"

// DeliveryRecord is the flat export row of one dispatched bundle.
type DeliveryRecord struct {
	Timestamp      int64   `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	EventType      string  `json:"eventType" parquet:"name=eventType,type=BYTE_ARRAY,convertedtype=UTF8"`
	RunID          string  `json:"runId" parquet:"name=runId,type=BYTE_ARRAY,convertedtype=UTF8"`
	BundleID       string  `json:"bundleId" parquet:"name=bundleId,type=BYTE_ARRAY,convertedtype=UTF8"`
	ShopID         string  `json:"shopId" parquet:"name=shopId,type=BYTE_ARRAY,convertedtype=UTF8"`
	CourierID      string  `json:"courierId" parquet:"name=courierId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Vehicle        string  `json:"vehicle" parquet:"name=vehicle,type=BYTE_ARRAY,convertedtype=UTF8"`
	Taxi           bool    `json:"taxi" parquet:"name=taxi,type=BOOLEAN"`
	StartTime      int64   `json:"startTime" parquet:"name=startTime,type=INT64"`
	EndTime        int64   `json:"endTime" parquet:"name=endTime,type=INT64"`
	OrderIDs       string  `json:"orderIds" parquet:"name=orderIds,type=BYTE_ARRAY,convertedtype=UTF8"`
	OrderCount     int32   `json:"orderCount" parquet:"name=orderCount,type=INT32"`
	Cost           float64 `json:"cost" parquet:"name=cost,type=DOUBLE"`
	Distance       float64 `json:"distance" parquet:"name=distance,type=DOUBLE"`
	ReserveSeconds int64   `json:"reserveSeconds" parquet:"name=reserveSeconds,type=INT64"`
}

const DeliveryEventType = "delivery_dispatched"

func NewDeliveryRecord(runID string, b *DeliveryBundle) DeliveryRecord {
	ids := make([]string, len(b.Orders))
	for i, o := range b.Orders {
		ids[i] = o.ID
	}
	return DeliveryRecord{
		Timestamp:      b.CreatedAt.Unix(),
		EventType:      DeliveryEventType,
		RunID:          runID,
		BundleID:       b.ID,
		ShopID:         b.ShopID,
		CourierID:      b.Courier.ID,
		Vehicle:        string(b.Courier.Vehicle),
		Taxi:           b.IsTaxi(),
		StartTime:      b.CreatedAt.Unix(),
		EndTime:        b.EndTime.Unix(),
		OrderIDs:       strings.Join(ids, ","),
		OrderCount:     int32(len(b.Orders)),
		Cost:           b.Cost,
		Distance:       b.Distance,
		ReserveSeconds: int64(b.ReserveTime.Seconds()),
	}
}
