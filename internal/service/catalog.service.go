package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cravecart/internal/domain"
	"cravecart/internal/repo"

	"github.com/sirupsen/logrus"
)

// CatalogService serves the restaurant list customers browse and the menu
// prices orders are charged at.
type CatalogService interface {
	ListStorefronts(ctx context.Context) ([]domain.Storefront, error)
	GetStorefront(ctx context.Context, id string) (*domain.Storefront, error)
	SaveStorefront(ctx context.Context, by domain.Admin, s domain.Storefront) (*domain.Storefront, error)
	// SeedDefaults fills an empty catalog with the default storefronts and
	// reports how many were added.
	SeedDefaults(ctx context.Context) (int, error)
}

type catalogService struct {
	catalogRepo repo.CatalogRepo
	log         *logrus.Entry
}

func NewCatalogService(catalogRepo repo.CatalogRepo, log *logrus.Entry) CatalogService {
	return &catalogService{catalogRepo: catalogRepo, log: log}
}

func (s *catalogService) ListStorefronts(ctx context.Context) ([]domain.Storefront, error) {
	stores, err := s.catalogRepo.ListStorefronts(ctx)
	if err != nil {
		return nil, unavailable("list restaurants", err)
	}
	return stores, nil
}

func (s *catalogService) GetStorefront(ctx context.Context, id string) (*domain.Storefront, error) {
	store, err := s.catalogRepo.FindStorefront(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("restaurant %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, unavailable("find restaurant", err)
	}
	return store, nil
}

func (s *catalogService) SaveStorefront(ctx context.Context, by domain.Admin, store domain.Storefront) (*domain.Storefront, error) {
	store.ID = strings.TrimSpace(store.ID)
	store.Name = strings.TrimSpace(store.Name)
	if err := store.Validate(); err != nil {
		return nil, err
	}
	if err := s.catalogRepo.SaveStorefront(ctx, &store); err != nil {
		return nil, unavailable("save restaurant", err)
	}
	s.log.WithFields(logrus.Fields{
		"action":     "restaurant_saved",
		"restaurant": store.ID,
		"menu_items": len(store.Menu),
		"by":         by.Name,
	}).Info("restaurant saved")
	return &store, nil
}

func (s *catalogService) SeedDefaults(ctx context.Context) (int, error) {
	existing, err := s.catalogRepo.ListStorefronts(ctx)
	if err != nil {
		return 0, unavailable("list restaurants", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	defaults := domain.DefaultStorefronts()
	for i := range defaults {
		if err := s.catalogRepo.SaveStorefront(ctx, &defaults[i]); err != nil {
			return i, unavailable("seed restaurant", err)
		}
	}
	s.log.WithField("restaurants", len(defaults)).Info("catalog seeded")
	return len(defaults), nil
}
