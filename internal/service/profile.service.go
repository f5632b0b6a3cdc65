package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cravecart/internal/domain"
	"cravecart/internal/repo"

	"github.com/sirupsen/logrus"
)

var ErrInvalidProfile = errors.New("invalid profile")

type UpdateProfileRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	City    string `json:"city"`
	Address string `json:"address"`
}

type ProfileService interface {
	GetProfile(ctx context.Context, customer domain.Customer) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, customer domain.Customer, req UpdateProfileRequest) (*domain.Profile, error)
}

type profileService struct {
	profileRepo repo.ProfileRepo
	log         *logrus.Entry
	now         func() time.Time
}

func NewProfileService(profileRepo repo.ProfileRepo, log *logrus.Entry) ProfileService {
	return &profileService{profileRepo: profileRepo, log: log, now: time.Now}
}

func (s *profileService) GetProfile(ctx context.Context, customer domain.Customer) (*domain.Profile, error) {
	p, err := s.profileRepo.FindProfile(ctx, customer.UID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("profile: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, unavailable("find profile", err)
	}
	return p, nil
}

// UpdateProfile replaces the customer's profile. City and address are
// required; the name falls back to the one on the token.
func (s *profileService) UpdateProfile(ctx context.Context, customer domain.Customer, req UpdateProfileRequest) (*domain.Profile, error) {
	p := &domain.Profile{
		CustomerID: customer.UID,
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		City:       strings.TrimSpace(req.City),
		Address:    strings.TrimSpace(req.Address),
		UpdatedAt:  s.now().UTC(),
	}
	if p.City == "" || p.Address == "" {
		return nil, fmt.Errorf("%w: city and address are required", ErrInvalidProfile)
	}
	if p.Name == "" {
		p.Name = customer.Name
	}
	if req.Phone != "" {
		phone, err := normalizePhone(req.Phone)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
		}
		p.Phone = phone
	}

	if err := s.profileRepo.SaveProfile(ctx, p); err != nil {
		return nil, unavailable("save profile", err)
	}
	s.log.WithFields(logrus.Fields{"action": "profile_updated", "customer": customer.UID}).Info("profile saved")
	return p, nil
}
