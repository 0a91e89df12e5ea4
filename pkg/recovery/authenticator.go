package recovery

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrInvalidKey indicates the recovery key is missing, wrong, used or expired.
	ErrInvalidKey = errors.New("recovery: invalid key")
	// ErrNilAuthenticator indicates a nil authenticator was used.
	ErrNilAuthenticator = errors.New("recovery: authenticator is nil")
	// ErrNilManager indicates the authenticator was built without a manager.
	ErrNilManager = errors.New("recovery: manager is nil")
)

// Authenticator validates a recovery key and consumes it on success.
// It is safe for concurrent use; two callers presenting the same key cannot
// both succeed, even through different Authenticators on one Manager.
type Authenticator struct {
	mgr *Manager
}

// NewAuthenticator wraps mgr in a check-then-consume authenticator.
func NewAuthenticator(mgr *Manager) (*Authenticator, error) {
	if mgr == nil {
		return nil, ErrNilManager
	}
	return &Authenticator{mgr: mgr}, nil
}

// Authenticate accepts key once if it is the current active recovery key.
func (a *Authenticator) Authenticate(ctx context.Context, key string) error {
	if a == nil {
		return ErrNilAuthenticator
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}

	if !a.mgr.consume(key) {
		return ErrInvalidKey
	}
	return nil
}
