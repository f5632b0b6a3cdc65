package domain

import "time"

// Profile is what a customer fills in once after their first login. The
// address is used for orders placed without one.
type Profile struct {
	CustomerID string    `json:"customerId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	City       string    `json:"city"`
	Address    string    `json:"address"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
