package recovery

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const (
	// KeyPrefix is prepended to every issued recovery key.
	KeyPrefix = "RK-"
	// DefaultTTL is how long an issued key stays valid.
	DefaultTTL = 15 * time.Minute

	// keyEntropyBytes is the number of random bytes behind each key (24 bits).
	keyEntropyBytes = 3
)

// Common errors returned by the recovery manager.
var (
	// ErrRecoveryDisabled indicates recovery mode is off and no key was issued.
	// It is a negative outcome rather than a fault; state is left untouched.
	ErrRecoveryDisabled = errors.New("recovery: recovery mode disabled")
	// ErrInvalidConfig indicates the manager configuration is invalid.
	ErrInvalidConfig = errors.New("recovery: invalid configuration")
	// ErrRandomSource indicates the random source could not supply key material.
	ErrRandomSource = errors.New("recovery: random source failure")
)

// ModeProvider reports whether recovery mode is switched on. It is polled on
// every call to Generate.
type ModeProvider interface {
	RecoveryModeEnabled() bool
}

// ModeFunc adapts a function to the ModeProvider interface.
type ModeFunc func() bool

// RecoveryModeEnabled calls f.
func (f ModeFunc) RecoveryModeEnabled() bool { return f() }

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Config holds the collaborators a Manager is built from.
type Config struct {
	// Mode reports the recovery mode switch (required).
	Mode ModeProvider
	// Clock supplies issuance and expiry times.
	// Default: SystemClock
	Clock Clock
	// Random supplies key material and must be cryptographically secure.
	// Default: crypto/rand.Reader
	Random io.Reader
	// Sink receives lifecycle events.
	// Default: Discard
	Sink EventSink
	// TTL is the validity window of an issued key.
	// Default: 15 minutes
	TTL time.Duration
}

func (c Config) validate() error {
	if c.Mode == nil {
		return fmt.Errorf("%w: mode provider must not be nil", ErrInvalidConfig)
	}
	if c.TTL < 0 {
		return fmt.Errorf("%w: ttl must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Credential is a point-in-time copy of the managed credential.
type Credential struct {
	Key       string
	ExpiresAt time.Time
	Used      bool
}

// Active reports whether the credential exists, is unused and has not expired at now.
func (c Credential) Active(now time.Time) bool {
	return c.Key != "" && !c.Used && !now.After(c.ExpiresAt)
}

// State names the position of the credential slot in its lifecycle.
type State string

const (
	StateEmpty    State = "empty"
	StateActive   State = "active"
	StateConsumed State = "consumed"
	StateDead     State = "dead"
)

// Manager owns the single recovery credential slot.
// It is safe for concurrent use.
type Manager struct {
	mode   ModeProvider
	clock  Clock
	random io.Reader
	sink   EventSink
	ttl    time.Duration

	mu        sync.Mutex
	key       string
	expiresAt time.Time
	used      bool
}

// NewManager creates a recovery manager with an empty credential slot.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	if cfg.Random == nil {
		cfg.Random = rand.Reader
	}
	if cfg.Sink == nil {
		cfg.Sink = Discard
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}

	return &Manager{
		mode:   cfg.Mode,
		clock:  cfg.Clock,
		random: cfg.Random,
		sink:   cfg.Sink,
		ttl:    cfg.TTL,
	}, nil
}

// IsRecoveryModeEnabled reports whether the recovery mode switch is on.
func (m *Manager) IsRecoveryModeEnabled() bool {
	return m.mode.RecoveryModeEnabled()
}

// Generate issues a new recovery key, replacing any previous one.
// It returns ErrRecoveryDisabled, without touching state, when recovery mode is off.
func (m *Manager) Generate() (string, error) {
	if !m.IsRecoveryModeEnabled() {
		return "", ErrRecoveryDisabled
	}

	buf := make([]byte, keyEntropyBytes)

	m.mu.Lock()
	if _, err := io.ReadFull(m.random, buf); err != nil {
		m.mu.Unlock()
		return "", fmt.Errorf("%w: %v", ErrRandomSource, err)
	}
	key := KeyPrefix + strings.ToUpper(hex.EncodeToString(buf))
	m.key = key
	m.expiresAt = m.clock.Now().Add(m.ttl)
	m.used = false
	expiresAt := m.expiresAt
	m.mu.Unlock()

	now := m.clock.Now()
	m.emit(Event{
		Kind:      EventKeyIssued,
		Key:       key,
		ExpiresAt: expiresAt,
		Remaining: expiresAt.Sub(now),
		At:        now,
	})

	return key, nil
}

// ValidateKey reports whether input matches the current, unused, unexpired key.
// An expired key is invalidated as a side effect. A successful validation does
// not consume the key; call MarkAsUsed once the login has completed.
func (m *Manager) ValidateKey(input string) bool {
	return m.check(input, false)
}

// consume validates input and, on a match, marks the key used in the same
// critical section, so a concurrent Generate cannot slip in between.
func (m *Manager) consume(input string) bool {
	return m.check(input, true)
}

func (m *Manager) check(input string, consume bool) bool {
	m.mu.Lock()
	if m.key == "" || m.used {
		m.mu.Unlock()
		return false
	}

	now := m.clock.Now()
	if now.After(m.expiresAt) {
		expired := Event{Kind: EventKeyExpired, Key: m.key, ExpiresAt: m.expiresAt, At: now}
		m.clear()
		m.mu.Unlock()

		m.emit(expired)
		m.emit(Event{Kind: EventKeyInvalidated, At: now})
		return false
	}

	ok := subtle.ConstantTimeCompare([]byte(input), []byte(m.key)) == 1
	if !ok || !consume {
		m.mu.Unlock()
		return ok
	}
	m.used = true
	key := m.key
	m.mu.Unlock()

	m.emit(Event{Kind: EventKeyUsed, Key: key, At: now})
	return true
}

// Invalidate destroys the current key. It is a no-op when no key exists.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	if m.key == "" {
		m.mu.Unlock()
		return
	}
	m.clear()
	m.mu.Unlock()

	m.emit(Event{Kind: EventKeyInvalidated, At: m.clock.Now()})
}

// MarkAsUsed consumes the current key. It always sets the used flag, even
// when no key was ever issued; callers invoke it only after a successful
// ValidateKey.
func (m *Manager) MarkAsUsed() {
	m.mu.Lock()
	m.used = true
	key := m.key
	m.mu.Unlock()

	m.emit(Event{Kind: EventKeyUsed, Key: key, At: m.clock.Now()})
}

// Snapshot returns a copy of the credential slot.
func (m *Manager) Snapshot() Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Credential{Key: m.key, ExpiresAt: m.expiresAt, Used: m.used}
}

// State reports the lifecycle state of the credential slot. An ACTIVE key whose
// expiry has passed is still reported ACTIVE until ValidateKey observes it.
func (m *Manager) State() State {
	c := m.Snapshot()
	switch {
	case c.Key == "" && !c.Used:
		return StateEmpty
	case c.Key == "":
		return StateDead
	case c.Used:
		return StateConsumed
	default:
		return StateActive
	}
}

// clear moves the slot to the dead state. Must be called with mu held.
func (m *Manager) clear() {
	m.key = ""
	m.expiresAt = time.Time{}
	m.used = true
}

// emit delivers e to the sink; a panicking sink is contained.
func (m *Manager) emit(e Event) {
	defer func() {
		_ = recover()
	}()
	m.sink.Emit(e)
}
