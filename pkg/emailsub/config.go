package emailsub

import (
	"fmt"

	"github.com/dmitrymomot/subscribe/pkg/config"
)

// Config holds the email subscription settings.
type Config struct {
	FlagPrefix string `env:"SUBSCRIBE_EMAIL_FLAG_PREFIX" envDefault:"email"`
	Notifier   string `env:"SUBSCRIBE_EMAIL_NOTIFIER" envDefault:"email"`
}

// DefaultConfig returns the settings used when no environment is configured.
func DefaultConfig() Config {
	return Config{FlagPrefix: "email", Notifier: "email"}
}

// LoadConfig reads the settings from the environment and validates them.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.FlagPrefix == "" {
		return fmt.Errorf("%w: flag prefix is required", ErrInvalidConfig)
	}
	if c.Notifier == "" {
		return fmt.Errorf("%w: notifier is required", ErrInvalidConfig)
	}
	return nil
}
