// Package config loads typed configuration from environment variables.
//
// Structs are annotated with github.com/caarlos0/env tags and parsed once per type:
//
//	type Config struct {
//		QueueName string `env:"SUBSCRIBE_QUEUE_NAME" envDefault:"message_subscribe"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// The default .env file is loaded through github.com/joho/godotenv on first use.
// LoadEnv loads additional files. Parse skips the cache, and Reset clears it in tests.
package config
