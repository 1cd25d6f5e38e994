package models

import "time"

type EffectKind string

const (
	EffectNone             EffectKind = ""
	EffectOrderAssembled   EffectKind = "order_assembled"
	EffectCourierReady     EffectKind = "courier_ready"
	EffectCourierLeft      EffectKind = "courier_left"
	EffectDeliveryStarted  EffectKind = "delivery_started"
	EffectDeliveryFinished EffectKind = "delivery_finished"
	EffectShopDelivered    EffectKind = "shop_delivered"
)

// Effect describes a state change made by a Shop or Courier operation. The
// dispatcher consumes effects synchronously and decides what to reschedule.
type Effect struct {
	Kind    EffectKind
	At      time.Time
	ShopID  string
	Courier *Courier
	Bundle  *DeliveryBundle
	Order   *Order
}

func (e Effect) IsNone() bool { return e.Kind == EffectNone }
