package repo

import (
	"context"
	"database/sql"
	"errors"

	"cravecart/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateUsername is returned when a partner username is already taken.
var ErrDuplicateUsername = errors.New("username already exists")

type PartnerRepo interface {
	CreatePartner(ctx context.Context, partner *domain.Partner) error
	FindByUsername(ctx context.Context, username string) (*domain.Partner, error)
}

type partnerRepo struct {
	db *sql.DB
}

func NewPartnerRepo(db *sql.DB) PartnerRepo {
	return &partnerRepo{db: db}
}

func (r *partnerRepo) CreatePartner(ctx context.Context, partner *domain.Partner) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO partners (id, username, password_hash, role, name, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		partner.ID, partner.Username, partner.PasswordHash, partner.Role, partner.Name, partner.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateUsername
	}
	return err
}

func (r *partnerRepo) FindByUsername(ctx context.Context, username string) (*domain.Partner, error) {
	var p domain.Partner
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, name, created_at FROM partners WHERE username = $1`,
		username,
	).Scan(&p.ID, &p.Username, &p.PasswordHash, &p.Role, &p.Name, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
