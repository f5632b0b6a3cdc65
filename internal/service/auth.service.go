package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"cravecart/internal/domain"
	"cravecart/internal/identity"
	"cravecart/internal/infrastructure/sms"
	"cravecart/internal/repo"

	"github.com/sirupsen/logrus"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// AuthService runs the customer phone login: a short-lived numeric code is
// sent over the messaging gateway and traded for a token.
type AuthService interface {
	RequestCode(ctx context.Context, phone string) error
	VerifyCode(ctx context.Context, phone, code, name string) (string, error)
}

// OTPPolicy bounds how codes are issued and guessed. A code is dropped after
// MaxAttempts wrong guesses, and a phone gets at most one code per
// ResendInterval.
type OTPPolicy struct {
	TTL            time.Duration
	ResendInterval time.Duration
	MaxAttempts    int
}

func DefaultOTPPolicy() OTPPolicy {
	return OTPPolicy{TTL: 5 * time.Minute, ResendInterval: 30 * time.Second, MaxAttempts: 5}
}

type authService struct {
	otpRepo    repo.OTPRepo
	gateway    sms.Gateway
	identities identity.Provider
	policy     OTPPolicy
	log        *logrus.Entry
	now        func() time.Time
}

func NewAuthService(otpRepo repo.OTPRepo, gateway sms.Gateway, identities identity.Provider, policy OTPPolicy, log *logrus.Entry) AuthService {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &authService{
		otpRepo:    otpRepo,
		gateway:    gateway,
		identities: identities,
		policy:     policy,
		log:        log,
		now:        time.Now,
	}
}

func (s *authService) RequestCode(ctx context.Context, phone string) error {
	phone, err := normalizePhone(phone)
	if err != nil {
		return err
	}

	code, err := newCode()
	if err != nil {
		return err
	}
	now := s.now()
	saved, err := s.otpRepo.SaveCode(ctx, phone, code, now, now.Add(s.policy.TTL), s.policy.ResendInterval)
	if err != nil {
		return unavailable("save code", err)
	}
	if !saved {
		s.log.WithFields(logrus.Fields{"action": "otp_throttled", "phone": maskPhone(phone)}).Warn("login code requested too soon")
		return fmt.Errorf("%w: wait %s before requesting another code", domain.ErrRateLimited, s.policy.ResendInterval)
	}

	msg := fmt.Sprintf("Your CraveCart login code is %s. It expires in %d minutes.", code, int(s.policy.TTL.Minutes()))
	if err := s.gateway.Send(ctx, phone, msg); err != nil {
		return unavailable("send code", err)
	}

	s.log.WithFields(logrus.Fields{"action": "otp_requested", "phone": maskPhone(phone)}).Info("login code sent")
	return nil
}

func (s *authService) VerifyCode(ctx context.Context, phone, code, name string) (string, error) {
	phone, err := normalizePhone(phone)
	if err != nil {
		return "", err
	}
	if err := s.otpRepo.ConsumeCode(ctx, phone, strings.TrimSpace(code), s.now(), s.policy.MaxAttempts); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			s.log.WithFields(logrus.Fields{"action": "otp_rejected", "phone": maskPhone(phone)}).Warn("login code rejected")
			return "", fmt.Errorf("%w: invalid or expired code", domain.ErrUnauthorized)
		}
		return "", unavailable("consume code", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = maskPhone(phone)
	}
	return s.identities.Issue(identity.Identity{
		UID:         identity.CustomerUID(phone),
		DisplayName: name,
		Role:        domain.RoleCustomer,
	})
}

func normalizePhone(phone string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-':
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
		}
	}
	digits := strings.TrimPrefix(b.String(), "+")
	if len(digits) < 7 || len(digits) > 15 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	return b.String(), nil
}

// newCode returns a 4 digit code in [1000, 9999].
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", 1000+n.Int64()), nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
