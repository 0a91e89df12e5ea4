package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-recovery/pkg/recovery"
)

// Handler defines the contract for a backend authenticator.
// The implementation should return nil on success or an error on failure.
type Handler interface {
	Authenticate(ctx context.Context, username, password, otp string) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, username, password, otp string) error

// Authenticate executes the underlying function.
func (f HandlerFunc) Authenticate(ctx context.Context, username, password, otp string) error {
	return f(ctx, username, password, otp)
}

// BackendName identifies a registered authentication backend.
type BackendName string

const (
	// BackendPassword is the host service's normal username/password check.
	BackendPassword BackendName = "password"
	// BackendRecovery accepts a one-time recovery key as the password.
	BackendRecovery BackendName = "recovery"
)

// Backend represents a named authentication backend.
type Backend struct {
	Name    BackendName
	Handler Handler
}

// Config contains the ordered list of backends the service should attempt.
type Config struct {
	Backends []Backend
}

// Service coordinates authentication attempts across configured backends.
type Service struct {
	backends []Backend
}

var (
	// ErrNoBackends indicates the service was initialised without any backends.
	ErrNoBackends = errors.New("api: no authentication backends configured")
	// ErrBackendNotFound indicates a requested backend name does not exist.
	ErrBackendNotFound = errors.New("api: requested backend not configured")
	// ErrMissingCredentials indicates the request does not contain mandatory fields.
	ErrMissingCredentials = errors.New("api: username and password are required")
	// ErrMissingKey indicates the recovery backend received no key.
	ErrMissingKey = errors.New("api: recovery key required")
)

// NewService builds a Service from the supplied configuration.
func NewService(cfg Config) (*Service, error) {
	if len(cfg.Backends) == 0 {
		return nil, ErrNoBackends
	}

	backends := make([]Backend, 0, len(cfg.Backends))
	seen := map[BackendName]struct{}{}
	for i, b := range cfg.Backends {
		if b.Handler == nil {
			return nil, fmt.Errorf("api: backend at index %d has no handler", i)
		}
		if _, ok := seen[b.Name]; ok {
			return nil, fmt.Errorf("api: duplicate backend name %q", b.Name)
		}
		seen[b.Name] = struct{}{}
		backends = append(backends, b)
	}

	return &Service{backends: backends}, nil
}

// LoginRequest contains the credentials and optional target backend.
type LoginRequest struct {
	Backend  BackendName
	Username string
	Password string
	OTP      string
}

// Login attempts authentication using the configured backends.
func (s *Service) Login(ctx context.Context, req LoginRequest) error {
	_, err := s.Authenticate(ctx, req)
	return err
}

// Authenticate behaves like Login and also reports which backend accepted
// the credentials, so callers can tell a recovery login from a normal one.
func (s *Service) Authenticate(ctx context.Context, req LoginRequest) (BackendName, error) {
	if s == nil || len(s.backends) == 0 {
		return "", ErrNoBackends
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Username == "" || req.Password == "" {
		return "", ErrMissingCredentials
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	var targets []Backend
	if req.Backend != "" {
		for _, b := range s.backends {
			if b.Name == req.Backend {
				targets = append(targets, b)
				break
			}
		}
		if len(targets) == 0 {
			return "", ErrBackendNotFound
		}
	} else {
		targets = s.backends
	}

	var errs []error
	for _, b := range targets {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := b.Handler.Authenticate(ctx, req.Username, req.Password, req.OTP); err == nil {
			return b.Name, nil
		} else {
			errs = append(errs, fmt.Errorf("%s: %w", b.Name, err))
		}
	}

	if len(errs) == 0 {
		return "", ErrNoBackends
	}
	return "", errors.Join(errs...)
}

// passwordAuthenticator describes authenticators that only accept username/password.
type passwordAuthenticator interface {
	Authenticate(ctx context.Context, username, password string) error
}

type keyAuthenticator interface {
	Authenticate(ctx context.Context, key string) error
}

// Password creates a Handler that delegates to a username/password authenticator.
func Password(auth passwordAuthenticator) Handler {
	return HandlerFunc(func(ctx context.Context, username, password, otp string) error {
		return auth.Authenticate(ctx, username, password)
	})
}

// Recovery creates a Handler that accepts a recovery key in place of the
// password. Any username is accepted and the OTP field is ignored; the key is
// consumed on success.
func Recovery(auth keyAuthenticator) Handler {
	return HandlerFunc(func(ctx context.Context, username, password, otp string) error {
		if password == "" {
			return ErrMissingKey
		}
		return auth.Authenticate(ctx, password)
	})
}

var _ keyAuthenticator = (*recovery.Authenticator)(nil)
