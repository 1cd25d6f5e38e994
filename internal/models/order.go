package models

import "time"

type Order struct {
	ID          string      `json:"id"`
	ShopID      string      `json:"shop_id"`
	Location    Location    `json:"location"`
	Weight      float64     `json:"weight"`
	AssembledAt time.Time   `json:"assembled_at"`
	Deadline    time.Time   `json:"deadline"`
	Status      OrderStatus `json:"status"`
	DeliveredAt time.Time   `json:"delivered_at,omitempty"`

	// Index is the order's position in its shop's order list and Point its
	// row in the distance matrix. Both are assigned when the day starts.
	Index int `json:"-"`
	Point int `json:"-"`
}

// Open reports whether the order can still be picked up at now: it is
// assembled and its deadline has not passed.
func (o *Order) Open(now time.Time) bool {
	if o.Status != OrderStatusAssembled && o.Status != OrderStatusPending {
		return false
	}
	return !o.AssembledAt.After(now) && now.Before(o.Deadline)
}

func (o *Order) Late() bool {
	return o.Status == OrderStatusDelivered && o.DeliveredAt.After(o.Deadline)
}
