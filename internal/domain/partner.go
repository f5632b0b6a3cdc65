package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleRestaurant Role = "restaurant"
	RoleDriver     Role = "driver"
	RoleAdmin      Role = "admin"
)

// IsPartner reports whether accounts with this role are created by an admin.
func (r Role) IsPartner() bool {
	return r == RoleRestaurant || r == RoleDriver
}

type Partner struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Role         Role
	Name         string
	CreatedAt    time.Time
}
