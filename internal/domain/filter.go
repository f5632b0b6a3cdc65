package domain

import "fmt"

// OrderFilter is a conjunction of equality filters. Zero fields match anything.
type OrderFilter struct {
	CustomerID string
	DriverID   string
	Status     OrderStatus
	Unclaimed  bool
}

func (f OrderFilter) Matches(o *Order) bool {
	if f.CustomerID != "" && o.CustomerID != f.CustomerID {
		return false
	}
	if f.DriverID != "" && !o.AssignedTo(f.DriverID) {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Unclaimed && o.IsClaimed() {
		return false
	}
	return true
}

// View selects which slice of orders a portal is looking at.
type View string

const (
	ViewDefault   View = ""
	ViewAvailable View = "available"
	ViewActive    View = "active"
)

// FilterFor picks the subscription filter a portal uses for the given actor.
func FilterFor(actor Actor, view View) (OrderFilter, error) {
	switch a := actor.(type) {
	case Customer:
		return OrderFilter{CustomerID: a.UID}, nil
	case Restaurant, Admin:
		return OrderFilter{}, nil
	case Driver:
		switch view {
		case ViewActive:
			return OrderFilter{DriverID: a.PartnerID}, nil
		case ViewAvailable, ViewDefault:
			return OrderFilter{Status: OrderCooking, Unclaimed: true}, nil
		default:
			return OrderFilter{}, fmt.Errorf("%w: unknown view %q", ErrInvalidRequest, view)
		}
	default:
		return OrderFilter{}, ErrUnauthorized
	}
}
