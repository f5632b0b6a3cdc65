package repo

import (
	"context"
	"database/sql"
	"errors"

	"cravecart/internal/domain"
)

type ProfileRepo interface {
	SaveProfile(ctx context.Context, p *domain.Profile) error
	FindProfile(ctx context.Context, customerID string) (*domain.Profile, error)
}

type profileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) ProfileRepo {
	return &profileRepo{db: db}
}

func (r *profileRepo) SaveProfile(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (customer_id, name, email, phone, city, address, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (customer_id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email,
			phone = EXCLUDED.phone, city = EXCLUDED.city, address = EXCLUDED.address, updated_at = EXCLUDED.updated_at`,
		p.CustomerID, p.Name, p.Email, p.Phone, p.City, p.Address, p.UpdatedAt,
	)
	return err
}

func (r *profileRepo) FindProfile(ctx context.Context, customerID string) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.QueryRowContext(ctx,
		`SELECT customer_id, name, email, phone, city, address, updated_at FROM profiles WHERE customer_id = $1`,
		customerID,
	).Scan(&p.CustomerID, &p.Name, &p.Email, &p.Phone, &p.City, &p.Address, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
