package subscribers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subscribe/pkg/config"
	"github.com/dmitrymomot/subscribe/pkg/queue"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty prefix", mutate: func(c *Config) { c.FlagPrefix = "" }, wantErr: true},
		{name: "empty queue", mutate: func(c *Config) { c.QueueName = "" }, wantErr: true},
		{name: "negative range", mutate: func(c *Config) { c.QueueRange = -1 }, wantErr: true},
		{name: "zero budget", mutate: func(c *Config) { c.WorkerTimeBudget = 0 }, wantErr: true},
		{name: "unknown owner policy", mutate: func(c *Config) { c.OwnerPolicy = "editor" }, wantErr: true},
		{name: "owner policy", mutate: func(c *Config) { c.OwnerPolicy = OwnerPolicyOwner }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_ValidateQueue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		budget  time.Duration
		lock    time.Duration
		wantErr bool
	}{
		{name: "budget below lock", budget: 15 * time.Second, lock: 5 * time.Minute},
		{name: "budget equals lock", budget: time.Minute, lock: time.Minute, wantErr: true},
		{name: "budget above lock", budget: 2 * time.Minute, lock: time.Minute, wantErr: true},
		{name: "lock unset", budget: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			cfg.WorkerTimeBudget = tt.budget
			err := cfg.ValidateQueue(queue.Config{LockTimeout: tt.lock})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_FromEnvironment(t *testing.T) {
	t.Setenv("SUBSCRIBE_DEFAULT_NOTIFIERS", "email,push")
	t.Setenv("SUBSCRIBE_USE_QUEUE", "true")
	t.Setenv("SUBSCRIBE_QUEUE_RANGE", "25")
	t.Setenv("SUBSCRIBE_WORKER_TIME_BUDGET", "5s")

	config.Reset()
	t.Cleanup(config.Reset)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"email", "push"}, cfg.DefaultNotifiers)
	assert.True(t, cfg.UseQueue)
	assert.Equal(t, 25, cfg.QueueRange)
	assert.Equal(t, 5*time.Second, cfg.WorkerTimeBudget)
	assert.Equal(t, "subscribe", cfg.FlagPrefix)
	assert.Equal(t, "message_subscribe", cfg.QueueName)
	assert.Equal(t, OwnerPolicyRevision, cfg.OwnerPolicy)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("SUBSCRIBE_OWNER_POLICY", "editor")
	config.Reset()
	t.Cleanup(config.Reset)

	_, err := LoadConfig()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_SubscribeOptions(t *testing.T) {
	t.Parallel()

	immediate := DefaultConfig()
	queued := DefaultConfig()
	queued.UseQueue = true
	queued.QueueRange = 50
	queued.NotifyOwnActions = true

	t.Run("immediate defaults", func(t *testing.T) {
		o := immediate.SubscribeOptions()
		assert.True(t, o.SaveMessage)
		assert.True(t, o.EntityAccess)
		assert.False(t, o.UseQueue)
		assert.False(t, o.NotifyMessageOwner)
		assert.Zero(t, o.Range)
	})

	t.Run("queued defaults", func(t *testing.T) {
		o := queued.SubscribeOptions()
		assert.True(t, o.UseQueue)
		assert.True(t, o.NotifyMessageOwner)
		assert.Equal(t, 50, o.Range)
	})

	t.Run("explicit range wins", func(t *testing.T) {
		assert.Zero(t, queued.SubscribeOptions(WithRange(0)).Range)
		assert.Equal(t, 7, queued.SubscribeOptions(WithRange(7)).Range)
	})

	t.Run("queue enabled per call", func(t *testing.T) {
		o := immediate.SubscribeOptions(WithQueue(true))
		assert.True(t, o.UseQueue)
		assert.Equal(t, 100, o.Range)
	})
}

func TestSubscribeOptions_DeadlinePassed(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, SubscribeOptions{}.deadlinePassed(now))
	assert.False(t, SubscribeOptions{EndTime: now.Add(time.Second)}.deadlinePassed(now))
	assert.False(t, SubscribeOptions{EndTime: now}.deadlinePassed(now))
	assert.True(t, SubscribeOptions{EndTime: now.Add(-time.Second)}.deadlinePassed(now))
}

func TestNotifyOptions_For(t *testing.T) {
	t.Parallel()

	var none NotifyOptions
	assert.Zero(t, none.For("email"))

	n := NotifyOptions{"email": {SaveOnSuccess: true}}
	assert.True(t, n.For("email").SaveOnSuccess)
	assert.False(t, n.For("push").SaveOnSuccess)
}
