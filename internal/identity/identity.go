package identity

import (
	"errors"
	"fmt"
	"time"

	"cravecart/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is what the provider knows about a caller.
type Identity struct {
	UID         string
	DisplayName string
	Role        domain.Role
}

func (id Identity) Actor() (domain.Actor, error) {
	return domain.NewActor(id.Role, id.UID, id.DisplayName)
}

type Provider interface {
	Issue(id Identity) (string, error)
	Resolve(token string) (Identity, error)
}

type claims struct {
	Name string      `json:"name"`
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type jwtProvider struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTProvider(secret string, ttl time.Duration) Provider {
	return &jwtProvider{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (p *jwtProvider) Issue(id Identity) (string, error) {
	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name: id.DisplayName,
		Role: id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	})
	return token.SignedString(p.secret)
}

func (p *jwtProvider) Resolve(token string) (Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	if c.Subject == "" {
		return Identity{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}
	return Identity{UID: c.Subject, DisplayName: c.Name, Role: c.Role}, nil
}

var customerNamespace = uuid.MustParse("6f1c4f5e-9b3e-4d8a-a7a4-2d3c1b0e9f10")

// CustomerUID derives a stable customer id from a phone number.
func CustomerUID(phone string) string {
	return uuid.NewSHA1(customerNamespace, []byte(phone)).String()
}

var ErrEmptyPassword = errors.New("password must not be empty")
