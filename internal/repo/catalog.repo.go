package repo

import (
	"context"
	"database/sql"
	"errors"

	"cravecart/internal/domain"
)

// CatalogRepo stores the restaurants customers order from, with their menus.
type CatalogRepo interface {
	ListStorefronts(ctx context.Context) ([]domain.Storefront, error)
	FindStorefront(ctx context.Context, id string) (*domain.Storefront, error)
	// SaveStorefront replaces the storefront and its whole menu.
	SaveStorefront(ctx context.Context, s *domain.Storefront) error
}

type catalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) CatalogRepo {
	return &catalogRepo{db: db}
}

func (r *catalogRepo) ListStorefronts(ctx context.Context) ([]domain.Storefront, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, cuisine FROM storefronts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stores := []domain.Storefront{}
	index := map[string]int{}
	for rows.Next() {
		var s domain.Storefront
		if err := rows.Scan(&s.ID, &s.Name, &s.Cuisine); err != nil {
			return nil, err
		}
		s.Menu = []domain.MenuItem{}
		index[s.ID] = len(stores)
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := r.db.QueryContext(ctx, `SELECT storefront_id, id, name, price FROM menu_items ORDER BY storefront_id, position`)
	if err != nil {
		return nil, err
	}
	defer items.Close()
	for items.Next() {
		var (
			storeID string
			it      domain.MenuItem
		)
		if err := items.Scan(&storeID, &it.ID, &it.Name, &it.Price); err != nil {
			return nil, err
		}
		if i, ok := index[storeID]; ok {
			stores[i].Menu = append(stores[i].Menu, it)
		}
	}
	return stores, items.Err()
}

func (r *catalogRepo) FindStorefront(ctx context.Context, id string) (*domain.Storefront, error) {
	var s domain.Storefront
	err := r.db.QueryRowContext(ctx, `SELECT id, name, cuisine FROM storefronts WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Cuisine)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, name, price FROM menu_items WHERE storefront_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	s.Menu = []domain.MenuItem{}
	for rows.Next() {
		var it domain.MenuItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Price); err != nil {
			return nil, err
		}
		s.Menu = append(s.Menu, it)
	}
	return &s, rows.Err()
}

func (r *catalogRepo) SaveStorefront(ctx context.Context, s *domain.Storefront) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO storefronts (id, name, cuisine, updated_at) VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, cuisine = EXCLUDED.cuisine, updated_at = now()`,
		s.ID, s.Name, s.Cuisine,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM menu_items WHERE storefront_id = $1`, s.ID); err != nil {
		return err
	}
	for i, it := range s.Menu {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO menu_items (storefront_id, id, name, price, position) VALUES ($1, $2, $3, $4, $5)`,
			s.ID, it.ID, it.Name, it.Price, i,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}
