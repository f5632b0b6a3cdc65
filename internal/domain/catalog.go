package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type MenuItem struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Storefront is a restaurant as customers browse it. Order prices are always
// taken from its menu, never from the client.
type Storefront struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Cuisine string     `json:"cuisine"`
	Menu    []MenuItem `json:"menu"`
}

func (s *Storefront) Item(id string) (MenuItem, bool) {
	for _, it := range s.Menu {
		if it.ID == id {
			return it, true
		}
	}
	return MenuItem{}, false
}

func (s *Storefront) Validate() error {
	if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: restaurant id and name are required", ErrInvalidRequest)
	}
	seen := make(map[string]bool, len(s.Menu))
	for _, it := range s.Menu {
		switch {
		case strings.TrimSpace(it.ID) == "" || strings.TrimSpace(it.Name) == "":
			return fmt.Errorf("%w: menu items need an id and a name", ErrInvalidRequest)
		case seen[it.ID]:
			return fmt.Errorf("%w: duplicate menu item %q", ErrInvalidRequest, it.ID)
		case it.Price.IsNegative():
			return fmt.Errorf("%w: menu item %q has a negative price", ErrInvalidRequest, it.ID)
		case !WholeCents(it.Price):
			return fmt.Errorf("%w: menu item %q price %s has more than two decimals", ErrInvalidRequest, it.ID, it.Price)
		}
		seen[it.ID] = true
	}
	return nil
}

// WholeCents reports whether d fits the two decimal places money is stored with.
func WholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// DefaultStorefronts is the catalog a fresh deployment starts with.
func DefaultStorefronts() []Storefront {
	return []Storefront{
		{
			ID:      "1",
			Name:    "Burger King",
			Cuisine: "Burgers",
			Menu:    []MenuItem{{ID: "101", Name: "Whopper", Price: decimal.NewFromInt(349)}},
		},
		{
			ID:      "2",
			Name:    "Pizza Hut",
			Cuisine: "Pizza",
			Menu:    []MenuItem{{ID: "201", Name: "Pepperoni", Price: decimal.NewFromInt(499)}},
		},
	}
}
