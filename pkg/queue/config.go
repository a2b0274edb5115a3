package queue

import "time"

// Config holds the configuration for the notification queue.
type Config struct {
	PollInterval        time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"1s"`
	LockTimeout         time.Duration `env:"QUEUE_LOCK_TIMEOUT" envDefault:"5m"`
	ShutdownTimeout     time.Duration `env:"QUEUE_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	MaxConcurrentJobs   int           `env:"QUEUE_MAX_CONCURRENT_JOBS" envDefault:"5"`
	JobsPerSecond       int           `env:"QUEUE_JOBS_PER_SECOND" envDefault:"10"`
	MaxAttempts         int           `env:"QUEUE_MAX_ATTEMPTS" envDefault:"3"`
	BackoffInitial      time.Duration `env:"QUEUE_BACKOFF_INITIAL" envDefault:"2s"`
	BackoffMax          time.Duration `env:"QUEUE_BACKOFF_MAX" envDefault:"1m"`
	DeliveryTimeout     time.Duration `env:"QUEUE_DELIVERY_TIMEOUT" envDefault:"30s"`
	CompletedRetention  time.Duration `env:"QUEUE_COMPLETED_RETENTION" envDefault:"24h"`
	DeadLetterRetention time.Duration `env:"QUEUE_DEAD_LETTER_RETENTION" envDefault:"168h"`
	PurgeInterval       time.Duration `env:"QUEUE_PURGE_INTERVAL" envDefault:"10m"`
}

// Policy is the retry and retention policy applied to every job.
type Policy struct {
	MaxAttempts         int
	Backoff             BackoffStrategy
	DeliveryTimeout     time.Duration
	CompletedRetention  time.Duration
	DeadLetterRetention time.Duration
}

// DefaultPolicy returns three attempts with exponential backoff from two seconds,
// a day of completed-job retention and a week of dead-letter retention.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:         3,
		Backoff:             DefaultBackoff(),
		DeliveryTimeout:     30 * time.Second,
		CompletedRetention:  24 * time.Hour,
		DeadLetterRetention: 7 * 24 * time.Hour,
	}
}

// Policy builds the job policy described by cfg.
func (cfg Config) Policy() Policy {
	p := DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BackoffInitial > 0 || cfg.BackoffMax > 0 {
		p.Backoff = ExponentialBackoff{
			InitialInterval: cfg.BackoffInitial,
			MaxInterval:     cfg.BackoffMax,
			Multiplier:      2,
		}
	}
	if cfg.DeliveryTimeout > 0 {
		p.DeliveryTimeout = cfg.DeliveryTimeout
	}
	if cfg.CompletedRetention > 0 {
		p.CompletedRetention = cfg.CompletedRetention
	}
	if cfg.DeadLetterRetention > 0 {
		p.DeadLetterRetention = cfg.DeadLetterRetention
	}
	return p
}
