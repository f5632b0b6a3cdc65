package identity

import (
	"testing"
	"time"

	"cravecart/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndResolve(t *testing.T) {
	p := NewJWTProvider("secret", time.Hour)

	token, err := p.Issue(Identity{UID: "drv-1", DisplayName: "Dee", Role: domain.RoleDriver})
	require.NoError(t, err)

	id, err := p.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UID: "drv-1", DisplayName: "Dee", Role: domain.RoleDriver}, id)

	actor, err := id.Actor()
	require.NoError(t, err)
	assert.Equal(t, domain.Driver{PartnerID: "drv-1", Name: "Dee"}, actor)
}

func TestResolveRejects(t *testing.T) {
	p := NewJWTProvider("secret", time.Hour)
	token, err := p.Issue(Identity{UID: "c1", Role: domain.RoleCustomer})
	require.NoError(t, err)

	_, err = NewJWTProvider("other-secret", time.Hour).Resolve(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = p.Resolve("not-a-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	expired := &jwtProvider{secret: []byte("secret"), ttl: time.Minute, now: func() time.Time {
		return time.Now().Add(-time.Hour)
	}}
	old, err := expired.Issue(Identity{UID: "c1", Role: domain.RoleCustomer})
	require.NoError(t, err)
	_, err = p.Resolve(old)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCustomerUIDIsStable(t *testing.T) {
	assert.Equal(t, CustomerUID("+15550100"), CustomerUID("+15550100"))
	assert.NotEqual(t, CustomerUID("+15550100"), CustomerUID("+15550101"))
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)
	assert.NoError(t, ComparePassword(hash, "hunter2"))
	assert.Error(t, ComparePassword(hash, "hunter3"))

	_, err = HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}
