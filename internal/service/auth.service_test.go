package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"cravecart/internal/domain"
	"cravecart/internal/identity"
	"cravecart/internal/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outbox struct {
	mu   sync.Mutex
	sent map[string]string
	err  error
}

func (o *outbox) Send(_ context.Context, dest, msg string) error {
	if o.err != nil {
		return o.err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sent == nil {
		o.sent = make(map[string]string)
	}
	o.sent[dest] = msg
	return nil
}

var codePattern = regexp.MustCompile(`\b\d{4}\b`)

func (o *outbox) code(t *testing.T, dest string) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	code := codePattern.FindString(o.sent[dest])
	require.NotEmpty(t, code, "no code sent to %s", dest)
	return code
}

func TestPhoneLogin(t *testing.T) {
	box := &outbox{}
	ids := identity.NewJWTProvider("test-secret", time.Hour)
	svc := NewAuthService(repo.NewMemoryStore().OTPs(), box, ids, DefaultOTPPolicy(), quietLog())
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, "+1 555-010-0199"))
	code := box.code(t, "+15550100199")

	_, err := svc.VerifyCode(ctx, "+15550100199", "0000", "Alice")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	token, err := svc.VerifyCode(ctx, "+1 555 010 0199", code, "Alice")
	require.NoError(t, err)

	who, err := ids.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, who.Role)
	assert.Equal(t, "Alice", who.DisplayName)
	assert.Equal(t, identity.CustomerUID("+15550100199"), who.UID)

	_, err = svc.VerifyCode(ctx, "+15550100199", code, "Alice")
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "codes are single use")
}

func TestWrongGuessesBurnTheCode(t *testing.T) {
	box := &outbox{}
	ids := identity.NewJWTProvider("test-secret", time.Hour)
	policy := OTPPolicy{TTL: 5 * time.Minute, ResendInterval: 30 * time.Second, MaxAttempts: 5}
	svc := NewAuthService(repo.NewMemoryStore().OTPs(), box, ids, policy, quietLog())
	ctx := context.Background()
	const phone = "+15550100199"

	require.NoError(t, svc.RequestCode(ctx, phone))
	code := box.code(t, phone)
	wrong := "1000"
	if code == wrong {
		wrong = "1001"
	}

	for i := 0; i < policy.MaxAttempts; i++ {
		_, err := svc.VerifyCode(ctx, phone, wrong, "Mallory")
		require.ErrorIs(t, err, domain.ErrUnauthorized, "guess %d", i+1)
	}

	_, err := svc.VerifyCode(ctx, phone, code, "Alice")
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "the right code no longer works after the lockout")
}

func TestFewerWrongGuessesKeepTheCode(t *testing.T) {
	box := &outbox{}
	ids := identity.NewJWTProvider("test-secret", time.Hour)
	svc := NewAuthService(repo.NewMemoryStore().OTPs(), box, ids, DefaultOTPPolicy(), quietLog())
	ctx := context.Background()
	const phone = "+15550100199"

	require.NoError(t, svc.RequestCode(ctx, phone))
	code := box.code(t, phone)
	wrong := "1000"
	if code == wrong {
		wrong = "1001"
	}
	for i := 0; i < DefaultOTPPolicy().MaxAttempts-1; i++ {
		_, err := svc.VerifyCode(ctx, phone, wrong, "Alice")
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	}

	_, err := svc.VerifyCode(ctx, phone, code, "Alice")
	assert.NoError(t, err)
}

func TestRequestCodeIsThrottledPerPhone(t *testing.T) {
	box := &outbox{}
	ids := identity.NewJWTProvider("test-secret", time.Hour)
	svc := NewAuthService(repo.NewMemoryStore().OTPs(), box, ids, DefaultOTPPolicy(), quietLog()).(*authService)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, "+15550100199"))
	first := box.code(t, "+15550100199")

	now = now.Add(10 * time.Second)
	err := svc.RequestCode(ctx, "+1 555 010 0199")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, first, box.code(t, "+15550100199"), "no new message while throttled")

	require.NoError(t, svc.RequestCode(ctx, "+15550100100"), "other phones are not affected")

	now = now.Add(30 * time.Second)
	require.NoError(t, svc.RequestCode(ctx, "+15550100199"))
	second := box.code(t, "+15550100199")

	token, err := svc.VerifyCode(ctx, "+15550100199", second, "Alice")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestRequestCodeErrors(t *testing.T) {
	ids := identity.NewJWTProvider("test-secret", time.Hour)
	ctx := context.Background()

	svc := NewAuthService(repo.NewMemoryStore().OTPs(), &outbox{}, ids, DefaultOTPPolicy(), quietLog())
	for _, phone := range []string{"", "12", "call me", "1234567890123456"} {
		assert.ErrorIs(t, svc.RequestCode(ctx, phone), ErrInvalidPhone, phone)
	}

	down := NewAuthService(repo.NewMemoryStore().OTPs(), &outbox{err: errors.New("gateway 503")}, ids, DefaultOTPPolicy(), quietLog())
	assert.ErrorIs(t, down.RequestCode(ctx, "5550100199"), domain.ErrCollaboratorUnavailable)
}

func TestNormalizePhoneAndMask(t *testing.T) {
	p, err := normalizePhone(" +44 20-7946-0958 ")
	require.NoError(t, err)
	assert.Equal(t, "+442079460958", p)
	assert.Equal(t, "*********0958", maskPhone(p))

	_, err = normalizePhone("44+2079460958")
	assert.ErrorIs(t, err, ErrInvalidPhone)
}

func TestNewCodeRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := newCode()
		require.NoError(t, err)
		assert.Len(t, code, 4)
		assert.NotEqual(t, '0', rune(code[0]))
	}
}
