package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPlaced         OrderStatus = "placed"
	OrderCooking        OrderStatus = "cooking"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
)

// lifecycle is the only path an order may take.
var lifecycle = []OrderStatus{OrderPlaced, OrderCooking, OrderOutForDelivery, OrderDelivered}

// Rank returns the position of s in the lifecycle, or -1 for an unknown status.
func (s OrderStatus) Rank() int {
	for i, st := range lifecycle {
		if st == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) IsValid() bool { return s.Rank() >= 0 }

func (s OrderStatus) IsTerminal() bool { return s == OrderDelivered }

// Next returns the immediate successor of s. ok is false for the terminal
// status and for unknown values.
func (s OrderStatus) Next() (next OrderStatus, ok bool) {
	r := s.Rank()
	if r < 0 || r == len(lifecycle)-1 {
		return "", false
	}
	return lifecycle[r+1], true
}

func (s OrderStatus) String() string { return string(s) }

type Item struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID              uuid.UUID       `json:"id"`
	Items           []Item          `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"deliveryFee"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	RestaurantID    string          `json:"restaurantId"`
	RestaurantName  string          `json:"restaurantName"`
	CustomerID      string          `json:"customerId"`
	CustomerName    string          `json:"customerName"`
	DeliveryAddress string          `json:"deliveryAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	DriverID        *string         `json:"driverId"`
	DriverName      *string         `json:"driverName"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (o *Order) IsClaimed() bool { return o.DriverID != nil }

// AssignedTo reports whether driverID is the order's claimed driver.
func (o *Order) AssignedTo(driverID string) bool {
	return o.DriverID != nil && *o.DriverID == driverID
}

// Clone returns a deep copy so snapshots handed to subscribers never alias
// store state.
func (o Order) Clone() Order {
	c := o
	c.Items = append([]Item(nil), o.Items...)
	if o.DriverID != nil {
		id := *o.DriverID
		c.DriverID = &id
	}
	if o.DriverName != nil {
		name := *o.DriverName
		c.DriverName = &name
	}
	return c
}
