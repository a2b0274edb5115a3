package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/dmitrymomot/stockalert/pkg/change"
	"github.com/dmitrymomot/stockalert/pkg/logger"
)

// MessagePublisher is the part of *nats.Conn used by Publisher.
type MessagePublisher interface {
	PublishMsg(m *nats.Msg) error
}

// Publisher emits change events.
type Publisher struct {
	conn    MessagePublisher
	subject string
	logger  *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithSubject overrides DefaultSubject.
func WithSubject(subject string) PublisherOption {
	return func(p *Publisher) {
		if subject != "" {
			p.subject = subject
		}
	}
}

// WithPublisherLogger sets the publisher logger.
func WithPublisherLogger(l *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPublisher creates a publisher over conn.
func NewPublisher(conn MessagePublisher, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		conn:    conn,
		subject: DefaultSubject,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(logger.Component("changefeed.publisher"))
	return p
}

// Publish validates event and publishes it as JSON.
// Invalid events are never published.
func (p *Publisher) Publish(ctx context.Context, event change.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := event.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	msg := nats.NewMsg(p.subject)
	msg.Data = data
	msg.Header.Set(headerListingID, event.ListingID)
	msg.Header.Set(headerAttribute, string(event.Attribute))

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	p.logger.DebugContext(ctx, "change event published",
		logger.ListingID(event.ListingID),
		slog.String("attribute", string(event.Attribute)),
		slog.String("subject", p.subject))
	return nil
}

const (
	headerListingID = "Listing-Id"
	headerAttribute = "Change-Attribute"
)
