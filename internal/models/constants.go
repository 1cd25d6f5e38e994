package models

type OrderStatus string

type CourierStatus string

type VehicleType string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusAssembled  OrderStatus = "assembled"
	OrderStatusInDelivery OrderStatus = "in_delivery"
	OrderStatusDelivered  OrderStatus = "delivered"

	// CourierStatusUnknown is the zero value; a courier built through NewCourier
	// or NewTaxi never reports it.
	CourierStatusUnknown CourierStatus = ""
	CourierStatusOffDuty CourierStatus = "off_duty"
	CourierStatusReady   CourierStatus = "ready"
	CourierStatusBusy    CourierStatus = "busy"

	VehicleOnFoot  VehicleType = "on_foot"
	VehicleBicycle VehicleType = "bicycle"
	VehicleCar     VehicleType = "car"
	VehicleTaxi    VehicleType = "taxi"
)

// VehicleTypes lists the vehicle types in a stable order.
var VehicleTypes = []VehicleType{VehicleOnFoot, VehicleBicycle, VehicleCar, VehicleTaxi}

func (v VehicleType) Valid() bool {
	switch v {
	case VehicleOnFoot, VehicleBicycle, VehicleCar, VehicleTaxi:
		return true
	}
	return false
}
