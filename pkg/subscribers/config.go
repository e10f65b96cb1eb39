package subscribers

import (
	"fmt"
	"time"

	"github.com/dmitrymomot/subscribe/pkg/config"
	"github.com/dmitrymomot/subscribe/pkg/queue"
)

// OwnerPolicy selects which account counts as the owner of an entity when
// excluding the author of an action from its own notifications.
type OwnerPolicy string

const (
	// OwnerPolicyRevision uses the last revision author when known, the owner otherwise.
	OwnerPolicyRevision OwnerPolicy = "revision"
	// OwnerPolicyOwner always uses the declared owner.
	OwnerPolicyOwner OwnerPolicy = "owner"
)

// Config holds pipeline settings. Build it once and pass it to the constructors.
type Config struct {
	DefaultNotifiers []string      `env:"SUBSCRIBE_DEFAULT_NOTIFIERS" envDefault:"email" envSeparator:","`
	NotifyOwnActions bool          `env:"SUBSCRIBE_NOTIFY_OWN_ACTIONS" envDefault:"false"`
	FlagPrefix       string        `env:"SUBSCRIBE_FLAG_PREFIX" envDefault:"subscribe"`
	UseQueue         bool          `env:"SUBSCRIBE_USE_QUEUE" envDefault:"false"`
	QueueName        string        `env:"SUBSCRIBE_QUEUE_NAME" envDefault:"message_subscribe"`
	QueueRange       int           `env:"SUBSCRIBE_QUEUE_RANGE" envDefault:"100"`
	WorkerTimeBudget time.Duration `env:"SUBSCRIBE_WORKER_TIME_BUDGET" envDefault:"15s"`
	OwnerPolicy      OwnerPolicy   `env:"SUBSCRIBE_OWNER_POLICY" envDefault:"revision"`
}

// DefaultConfig returns the settings used when no environment is configured.
func DefaultConfig() Config {
	return Config{
		DefaultNotifiers: []string{"email"},
		FlagPrefix:       "subscribe",
		QueueName:        "message_subscribe",
		QueueRange:       100,
		WorkerTimeBudget: 15 * time.Second,
		OwnerPolicy:      OwnerPolicyRevision,
	}
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

// Validate checks the settings that have no safe zero value.
func (c Config) Validate() error {
	if c.FlagPrefix == "" {
		return fmt.Errorf("%w: flag prefix is required", ErrInvalidConfig)
	}
	if c.QueueName == "" {
		return fmt.Errorf("%w: queue name is required", ErrInvalidConfig)
	}
	if c.QueueRange < 0 {
		return fmt.Errorf("%w: queue range must not be negative", ErrInvalidConfig)
	}
	if c.WorkerTimeBudget <= 0 {
		return fmt.Errorf("%w: worker time budget must be positive", ErrInvalidConfig)
	}
	switch c.OwnerPolicy {
	case OwnerPolicyRevision, OwnerPolicyOwner:
	default:
		return fmt.Errorf("%w: unknown owner policy %q", ErrInvalidConfig, c.OwnerPolicy)
	}
	return nil
}

// ValidateQueue checks the settings against the worker that runs delivery jobs.
// A slice must end before the queue lock expires, otherwise a second worker
// could claim the same job while the first is still sending.
func (c Config) ValidateQueue(q queue.Config) error {
	if q.LockTimeout > 0 && c.WorkerTimeBudget >= q.LockTimeout {
		return fmt.Errorf("%w: worker time budget %s must be below the queue lock timeout %s",
			ErrInvalidConfig, c.WorkerTimeBudget, q.LockTimeout)
	}
	return nil
}

// flagPrefix returns the prefix including the separator, e.g. "subscribe_".
func (c Config) flagPrefix() string {
	return c.FlagPrefix + "_"
}
