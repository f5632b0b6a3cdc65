package domain

import "fmt"

// Actor is the caller of a lifecycle operation. The set of variants is closed:
// Customer, Restaurant, Driver and Admin.
type Actor interface {
	Role() Role
	ActorID() string
	DisplayName() string
	isActor()
}

type Customer struct {
	UID  string
	Name string
}

type Restaurant struct {
	PartnerID string
	Name      string
}

type Driver struct {
	PartnerID string
	Name      string
}

type Admin struct {
	Name string
}

func (Customer) Role() Role   { return RoleCustomer }
func (Restaurant) Role() Role { return RoleRestaurant }
func (Driver) Role() Role     { return RoleDriver }
func (Admin) Role() Role      { return RoleAdmin }

func (c Customer) ActorID() string   { return c.UID }
func (r Restaurant) ActorID() string { return r.PartnerID }
func (d Driver) ActorID() string     { return d.PartnerID }
func (Admin) ActorID() string        { return "admin" }

func (c Customer) DisplayName() string   { return c.Name }
func (r Restaurant) DisplayName() string { return r.Name }
func (d Driver) DisplayName() string     { return d.Name }
func (a Admin) DisplayName() string      { return a.Name }

func (Customer) isActor()   {}
func (Restaurant) isActor() {}
func (Driver) isActor()     {}
func (Admin) isActor()      {}

// NewActor builds the variant for role.
func NewActor(role Role, id, name string) (Actor, error) {
	switch role {
	case RoleCustomer:
		return Customer{UID: id, Name: name}, nil
	case RoleRestaurant:
		return Restaurant{PartnerID: id, Name: name}, nil
	case RoleDriver:
		return Driver{PartnerID: id, Name: name}, nil
	case RoleAdmin:
		return Admin{Name: name}, nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrUnauthorized, role)
	}
}
