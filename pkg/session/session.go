// Package session issues short-lived signed tokens for sessions that were
// established with a recovery key.
//
// Tokens are HS256 JWTs carrying an "amr" claim of ["recovery"] so downstream
// services can tell a recovery login from a normal one and restrict it to
// resetting access.
package session

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jeremyhahn/go-recovery/pkg/recovery"
)

// MethodRecovery is the authentication method reference for recovery logins.
const MethodRecovery = "recovery"

const minSecretLength = 32

var (
	// ErrInvalidConfig indicates the token issuer configuration is invalid.
	ErrInvalidConfig = errors.New("session: invalid configuration")
	// ErrInvalidToken indicates the token is malformed, forged or not a recovery session.
	ErrInvalidToken = errors.New("session: invalid token")
	// ErrExpiredToken indicates the token has expired.
	ErrExpiredToken = errors.New("session: token expired")
	// ErrMissingSubject indicates no subject was supplied when issuing.
	ErrMissingSubject = errors.New("session: subject must not be empty")
)

// Config holds token issuer configuration.
type Config struct {
	// Secret is the HMAC key (at least 32 bytes).
	Secret []byte
	// Issuer is the "iss" claim.
	Issuer string
	// TTL is the token lifetime.
	// Default: 10 minutes
	TTL time.Duration
	// Clock supplies issuance and validation times.
	// Default: recovery.SystemClock
	Clock recovery.Clock
}

func (c Config) validate() error {
	if len(c.Secret) < minSecretLength {
		return fmt.Errorf("%w: secret must be at least %d bytes", ErrInvalidConfig, minSecretLength)
	}
	if strings.TrimSpace(c.Issuer) == "" {
		return fmt.Errorf("%w: issuer must not be empty", ErrInvalidConfig)
	}
	if c.TTL < 0 {
		return fmt.Errorf("%w: ttl must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Claims are the claims of a recovery session token.
type Claims struct {
	jwt.RegisteredClaims
	AMR []string `json:"amr"`
}

// TokenIssuer signs and verifies recovery session tokens.
// It is safe for concurrent use.
type TokenIssuer struct {
	cfg Config
}

// NewTokenIssuer validates cfg and returns a TokenIssuer.
func NewTokenIssuer(cfg Config) (*TokenIssuer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.TTL == 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = recovery.SystemClock
	}

	return &TokenIssuer{cfg: cfg}, nil
}

// Issue returns a signed token for subject.
func (t *TokenIssuer) Issue(subject string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", ErrMissingSubject
	}

	now := t.cfg.Clock.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.cfg.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.TTL)),
		},
		AMR: []string{MethodRecovery},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer, lifetime and authentication method of
// tokenString and returns its claims.
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: token must not be empty", ErrInvalidToken)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return t.cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.cfg.Clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if !slices.Contains(claims.AMR, MethodRecovery) {
		return nil, fmt.Errorf("%w: not a recovery session", ErrInvalidToken)
	}

	return claims, nil
}
