package service

import (
	"context"
	"testing"

	"cravecart/internal/domain"
	"cravecart/internal/repo"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDefaultsOnlyFillsAnEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(repo.NewMemoryStore().Catalog(), quietLog())

	n, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	stores, err := svc.ListStorefronts(ctx)
	require.NoError(t, err)
	require.Len(t, stores, 2)
	assert.Equal(t, "Burger King", stores[0].Name)
	assert.Equal(t, "349", stores[0].Menu[0].Price.String())
}

func TestSaveStorefront(t *testing.T) {
	ctx := context.Background()
	admin := domain.Admin{Name: "root"}
	svc := NewCatalogService(repo.NewMemoryStore().Catalog(), quietLog())

	store := domain.Storefront{
		ID:   " tacos ",
		Name: "Taco Stand",
		Menu: []domain.MenuItem{{ID: "t1", Name: "Taco", Price: decimal.RequireFromString("89.50")}},
	}
	saved, err := svc.SaveStorefront(ctx, admin, store)
	require.NoError(t, err)
	assert.Equal(t, "tacos", saved.ID)

	got, err := svc.GetStorefront(ctx, "tacos")
	require.NoError(t, err)
	item, ok := got.Item("t1")
	require.True(t, ok)
	assert.Equal(t, "89.5", item.Price.String())

	_, err = svc.GetStorefront(ctx, "sushi")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	invalid := map[string]func(s *domain.Storefront){
		"no name":        func(s *domain.Storefront) { s.Name = "" },
		"sub-cent price": func(s *domain.Storefront) { s.Menu[0].Price = decimal.RequireFromString("89.499") },
		"negative price": func(s *domain.Storefront) { s.Menu[0].Price = decimal.NewFromInt(-5) },
		"duplicate item": func(s *domain.Storefront) { s.Menu = append(s.Menu, s.Menu[0]) },
		"unnamed item":   func(s *domain.Storefront) { s.Menu[0].Name = " " },
	}
	for name, mutate := range invalid {
		t.Run(name, func(t *testing.T) {
			s := store
			s.Menu = append([]domain.MenuItem(nil), store.Menu...)
			mutate(&s)
			_, err := svc.SaveStorefront(ctx, admin, s)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}
}
