package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-recovery/pkg/recovery"
)

var testSecret = []byte(strings.Repeat("k", 32))

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func newIssuer(t *testing.T, clock recovery.Clock) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(Config{Secret: testSecret, Issuer: "auth.example.com", TTL: 5 * time.Minute, Clock: clock})
	require.NoError(t, err)
	return issuer
}

func TestNewTokenIssuer(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"valid", Config{Secret: testSecret, Issuer: "iss"}, nil},
		{"short secret", Config{Secret: []byte("short"), Issuer: "iss"}, ErrInvalidConfig},
		{"missing issuer", Config{Secret: testSecret}, ErrInvalidConfig},
		{"negative ttl", Config{Secret: testSecret, Issuer: "iss", TTL: -time.Minute}, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer, err := NewTokenIssuer(tt.cfg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 10*time.Minute, issuer.cfg.TTL)
		})
	}
}

func TestIssueAndVerify(t *testing.T) {
	clock := &stepClock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	issuer := newIssuer(t, clock)

	token, err := issuer.Issue("admin")
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, "auth.example.com", claims.Issuer)
	assert.Equal(t, []string{MethodRecovery}, claims.AMR)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.ExpiresAt.Time.Equal(clock.now.Add(5*time.Minute)))
}

func TestIssueUniqueIDs(t *testing.T) {
	issuer := newIssuer(t, nil)

	first, err := issuer.Issue("admin")
	require.NoError(t, err)
	second, err := issuer.Issue("admin")
	require.NoError(t, err)

	c1, err := issuer.Verify(first)
	require.NoError(t, err)
	c2, err := issuer.Verify(second)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c2.ID)
}

func TestIssueRequiresSubject(t *testing.T) {
	issuer := newIssuer(t, nil)
	_, err := issuer.Issue(" ")
	require.ErrorIs(t, err, ErrMissingSubject)
}

func TestVerifyExpired(t *testing.T) {
	clock := &stepClock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	issuer := newIssuer(t, clock)

	token, err := issuer.Issue("admin")
	require.NoError(t, err)

	clock.now = clock.now.Add(6 * time.Minute)
	_, err = issuer.Verify(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRejects(t *testing.T) {
	clock := &stepClock{now: time.Now()}
	issuer := newIssuer(t, clock)

	other, err := NewTokenIssuer(Config{Secret: []byte(strings.Repeat("x", 32)), Issuer: "auth.example.com", Clock: clock})
	require.NoError(t, err)
	forged, err := other.Issue("admin")
	require.NoError(t, err)

	wrongIssuer, err := NewTokenIssuer(Config{Secret: testSecret, Issuer: "elsewhere", Clock: clock})
	require.NoError(t, err)
	foreign, err := wrongIssuer.Issue("admin")
	require.NoError(t, err)

	normal, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "auth.example.com",
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Minute)),
		},
		AMR: []string{"pwd"},
	}).SignedString(testSecret)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "auth.example.com",
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Minute)),
		},
		AMR: []string{MethodRecovery},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"wrong secret", forged},
		{"wrong issuer", foreign},
		{"not a recovery session", normal},
		{"none algorithm", noneAlg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Verify(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
