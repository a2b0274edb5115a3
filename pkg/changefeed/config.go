package changefeed

import "time"

// DefaultSubject is the subject change events are published on.
const DefaultSubject = "listings.changes"

// DefaultQueueGroup is the queue group consumers join.
const DefaultQueueGroup = "stockalert"

// Config holds NATS connection settings.
type Config struct {
	URL           string        `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	Subject       string        `env:"NATS_CHANGE_SUBJECT" envDefault:"listings.changes"`
	QueueGroup    string        `env:"NATS_QUEUE_GROUP" envDefault:"stockalert"`
	Name          string        `env:"NATS_CLIENT_NAME" envDefault:"stockalert"`
	MaxReconnects int           `env:"NATS_MAX_RECONNECTS" envDefault:"60"`
	ReconnectWait time.Duration `env:"NATS_RECONNECT_WAIT" envDefault:"2s"`
	DrainTimeout  time.Duration `env:"NATS_DRAIN_TIMEOUT" envDefault:"10s"`
}
