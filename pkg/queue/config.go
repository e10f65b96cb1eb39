package queue

import "time"

// Config holds the configuration for the task queue
type Config struct {
	PollInterval       time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"5s"`
	LockTimeout        time.Duration `env:"QUEUE_LOCK_TIMEOUT" envDefault:"5m"`
	ShutdownTimeout    time.Duration `env:"QUEUE_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	MaxConcurrentTasks int           `env:"QUEUE_MAX_CONCURRENT_TASKS" envDefault:"1"`
	MaxRetries         int8          `env:"QUEUE_MAX_RETRIES" envDefault:"3"`
	// KeyPrefix namespaces Redis keys.
	KeyPrefix string `env:"QUEUE_REDIS_KEY_PREFIX" envDefault:"queue"`
}

// WorkerOptions converts the config into worker options.
func (c Config) WorkerOptions(queues ...string) []WorkerOption {
	opts := []WorkerOption{
		WithPullInterval(c.PollInterval),
		WithLockTimeout(c.LockTimeout),
		WithMaxConcurrentTasks(c.MaxConcurrentTasks),
	}
	if len(queues) > 0 {
		opts = append(opts, WithQueues(queues...))
	}
	return opts
}
