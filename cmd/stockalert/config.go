package main

import (
	"github.com/dmitrymomot/stockalert/pkg/changefeed"
	"github.com/dmitrymomot/stockalert/pkg/clientip"
	"github.com/dmitrymomot/stockalert/pkg/email"
	"github.com/dmitrymomot/stockalert/pkg/httpserver"
	"github.com/dmitrymomot/stockalert/pkg/pg"
	"github.com/dmitrymomot/stockalert/pkg/queue"
	"github.com/dmitrymomot/stockalert/pkg/ratelimit"
	"github.com/dmitrymomot/stockalert/pkg/redis"
)

const (
	backendMemory   = "memory"
	backendPostgres = "postgres"
	backendRedis    = "redis"
)

type appConfig struct {
	Env               string `env:"APP_ENV" envDefault:"development"`
	ServiceName       string `env:"APP_NAME" envDefault:"stockalert"`
	Storage           string `env:"STORAGE_BACKEND" envDefault:"postgres"` // postgres or memory
	ChangeFeedEnabled bool   `env:"CHANGEFEED_ENABLED" envDefault:"true"`
	FreshnessCapacity int    `env:"FRESHNESS_CAPACITY" envDefault:"10000"`
}

type Config struct {
	App        appConfig
	HTTP       httpserver.Config
	ClientIP   clientip.Config
	Postgres   pg.Config
	Redis      redis.Config
	RateLimit  ratelimit.Config
	Queue      queue.Config
	Email      email.Config
	ChangeFeed changefeed.Config
}
