// Package config loads process configuration for the recovery service from
// environment variables using Viper.
//
// # Environment Variables
//
//   - RECOVERY_MODE: Permit issuing recovery keys; only "true" enables. Default: false
//   - RECOVERY_TTL: Validity window of an issued key. Default: 15m
//   - LOG_LEVEL: Logging level (debug, info, warn, error). Default: info
//   - DEBUG: Force debug logging. Default: false
//   - SESSION_SECRET: HMAC secret for recovery session tokens.
//   - SESSION_TTL: Lifetime of a recovery session token. Default: 10m
//   - SESSION_ISSUER: Issuer claim of recovery session tokens. Default: go-recovery
//
// RECOVERY_MODE is polled on every key generation through ModeProvider, so
// flipping the variable takes effect without a restart.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration keys, also used as environment variable names.
const (
	// KeyRecoveryMode enables key issuance only when set to exactly "true".
	KeyRecoveryMode = "RECOVERY_MODE"
	// KeyRecoveryTTL is the validity window of an issued key.
	KeyRecoveryTTL = "RECOVERY_TTL"
	// KeyLogLevel is the zap log level name.
	KeyLogLevel = "LOG_LEVEL"
	// KeyDebug forces debug logging.
	KeyDebug = "DEBUG"
	// KeySessionSecret is the HMAC secret for recovery session tokens.
	KeySessionSecret = "SESSION_SECRET"
	// KeySessionTTL is the lifetime of a recovery session token.
	KeySessionTTL = "SESSION_TTL"
	// KeySessionIssuer is the issuer claim of recovery session tokens.
	KeySessionIssuer = "SESSION_ISSUER"
)

// ErrInvalidConfig indicates a configuration value is out of range.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the process configuration as loaded from the environment.
type Config struct {
	// RecoveryMode is whether RECOVERY_MODE was "true" at load time.
	RecoveryMode  bool          `mapstructure:"-"`
	RecoveryTTL   time.Duration `mapstructure:"RECOVERY_TTL"`
	LogLevel      string        `mapstructure:"LOG_LEVEL"`
	Debug         bool          `mapstructure:"DEBUG"`
	SessionSecret string        `mapstructure:"SESSION_SECRET"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`
	SessionIssuer string        `mapstructure:"SESSION_ISSUER"`
}

func (c Config) validate() error {
	if c.RecoveryTTL <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, KeyRecoveryTTL)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, KeySessionTTL)
	}
	return nil
}

// EffectiveLogLevel returns "debug" when DEBUG is set, LOG_LEVEL otherwise.
func (c Config) EffectiveLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}

// New returns a Viper instance with defaults applied and environment lookup enabled.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyRecoveryMode, false)
	v.SetDefault(KeyRecoveryTTL, 15*time.Minute)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeySessionSecret, "")
	v.SetDefault(KeySessionTTL, 10*time.Minute)
	v.SetDefault(KeySessionIssuer, "go-recovery")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration from v. A nil v uses New().
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = New()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.RecoveryMode = recoveryModeEnabled(v)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ModeProvider reports the recovery mode switch straight from Viper on every
// call. It satisfies recovery.ModeProvider.
type ModeProvider struct {
	v *viper.Viper
}

// NewModeProvider returns a ModeProvider backed by v. A nil v uses New().
func NewModeProvider(v *viper.Viper) *ModeProvider {
	if v == nil {
		v = New()
	}
	return &ModeProvider{v: v}
}

// RecoveryModeEnabled reports whether RECOVERY_MODE is currently "true".
func (p *ModeProvider) RecoveryModeEnabled() bool {
	if p == nil || p.v == nil {
		return false
	}
	return recoveryModeEnabled(p.v)
}

// recoveryModeEnabled accepts only the literal "true"; values such as "1",
// "t" or "TRUE" leave recovery mode off.
func recoveryModeEnabled(v *viper.Viper) bool {
	return v.GetString(KeyRecoveryMode) == "true"
}
