package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cravecart/internal/domain"
	"cravecart/internal/identity"
	"cravecart/internal/repo"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type CreatePartnerRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
	Name     string      `json:"name"`
}

var ErrInvalidPartner = errors.New("invalid partner")

type PartnerService interface {
	CreatePartner(ctx context.Context, by domain.Admin, req CreatePartnerRequest) (*domain.Partner, error)
	// Login checks credentials for the portal of role and returns a token.
	Login(ctx context.Context, username, password string, role domain.Role) (string, error)
	AdminLogin(ctx context.Context, username, password string) (string, error)
}

type AdminCredentials struct {
	Username     string
	PasswordHash string
}

type partnerService struct {
	partnerRepo repo.PartnerRepo
	identities  identity.Provider
	admin       AdminCredentials
	log         *logrus.Entry
}

func NewPartnerService(partnerRepo repo.PartnerRepo, identities identity.Provider, admin AdminCredentials, log *logrus.Entry) PartnerService {
	return &partnerService{
		partnerRepo: partnerRepo,
		identities:  identities,
		admin:       admin,
		log:         log,
	}
}

func (s *partnerService) CreatePartner(ctx context.Context, by domain.Admin, req CreatePartnerRequest) (*domain.Partner, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidPartner)
	}
	if !req.Role.IsPartner() {
		return nil, fmt.Errorf("%w: role must be restaurant or driver", ErrInvalidPartner)
	}
	if strings.TrimSpace(req.Name) == "" {
		req.Name = req.Username
	}

	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	partner := &domain.Partner{
		ID:           uuid.New(),
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.Role,
		Name:         req.Name,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.partnerRepo.CreatePartner(ctx, partner); err != nil {
		if errors.Is(err, repo.ErrDuplicateUsername) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPartner, err)
		}
		return nil, unavailable("create partner", err)
	}

	s.log.WithFields(logrus.Fields{
		"action":   "partner_created",
		"partner":  partner.ID,
		"role":     partner.Role,
		"admin":    by.Name,
		"username": partner.Username,
	}).Info("partner created")
	return partner, nil
}

func (s *partnerService) Login(ctx context.Context, username, password string, role domain.Role) (string, error) {
	partner, err := s.partnerRepo.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	if err != nil {
		return "", unavailable("find partner", err)
	}
	if err := identity.ComparePassword(partner.PasswordHash, password); err != nil {
		return "", fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	if partner.Role != role {
		return "", fmt.Errorf("%w: wrong portal", domain.ErrUnauthorized)
	}

	return s.identities.Issue(identity.Identity{
		UID:         partner.ID.String(),
		DisplayName: partner.Name,
		Role:        partner.Role,
	})
}

func (s *partnerService) AdminLogin(_ context.Context, username, password string) (string, error) {
	if s.admin.PasswordHash == "" || username != s.admin.Username {
		return "", fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	if err := identity.ComparePassword(s.admin.PasswordHash, password); err != nil {
		return "", fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	return s.identities.Issue(identity.Identity{UID: "admin", DisplayName: "Admin", Role: domain.RoleAdmin})
}
