// Package config loads typed configuration structs from environment variables.
//
// Struct fields are described with github.com/caarlos0/env tags. A .env file in
// the working directory, when present, is loaded once before the first parse.
// Each struct type is parsed at most once per process; later calls return the
// cached value.
//
//	type Config struct {
//	    MaxAttempts int           `env:"QUEUE_MAX_ATTEMPTS" envDefault:"3"`
//	    BaseDelay   time.Duration `env:"QUEUE_BACKOFF_BASE" envDefault:"2s"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// Use Parse to bypass the cache, for example in tests that set variables with
// t.Setenv.
package config
