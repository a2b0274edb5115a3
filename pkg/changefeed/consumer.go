package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/dmitrymomot/stockalert/pkg/change"
	"github.com/dmitrymomot/stockalert/pkg/logger"
)

// Submitter accepts change events for fan-out.
type Submitter interface {
	SubmitChange(ctx context.Context, event change.Event) error
}

// Subscriber is the part of *nats.Conn used by Consumer.
type Subscriber interface {
	QueueSubscribe(subject, queue string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Consumer feeds change events from NATS into a Submitter.
type Consumer struct {
	conn       Subscriber
	submitter  Submitter
	subject    string
	queueGroup string
	logger     *slog.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithConsumerSubject overrides DefaultSubject.
func WithConsumerSubject(subject string) ConsumerOption {
	return func(c *Consumer) {
		if subject != "" {
			c.subject = subject
		}
	}
}

// WithQueueGroup overrides DefaultQueueGroup.
func WithQueueGroup(group string) ConsumerOption {
	return func(c *Consumer) {
		if group != "" {
			c.queueGroup = group
		}
	}
}

// WithConsumerLogger sets the consumer logger.
func WithConsumerLogger(l *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewConsumer creates a consumer that submits events to submitter.
func NewConsumer(conn Subscriber, submitter Submitter, opts ...ConsumerOption) (*Consumer, error) {
	if conn == nil {
		return nil, ErrConnRequired
	}
	if submitter == nil {
		return nil, ErrSubmitterRequired
	}

	c := &Consumer{
		conn:       conn,
		submitter:  submitter,
		subject:    DefaultSubject,
		queueGroup: DefaultQueueGroup,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("changefeed.consumer"))
	return c, nil
}

// Run returns a function for errgroup that subscribes, blocks until ctx is
// done and then drains the subscription.
func (c *Consumer) Run(ctx context.Context) func() error {
	return func() error {
		c.mu.Lock()
		if c.sub != nil {
			c.mu.Unlock()
			return ErrAlreadyRunning
		}
		sub, err := c.conn.QueueSubscribe(c.subject, c.queueGroup, func(msg *nats.Msg) {
			_ = c.HandleMessage(ctx, msg.Data)
		})
		if err != nil {
			c.mu.Unlock()
			return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, c.subject, err)
		}
		c.sub = sub
		c.mu.Unlock()

		c.logger.InfoContext(ctx, "consuming change events",
			slog.String("subject", c.subject),
			slog.String("queue_group", c.queueGroup))

		<-ctx.Done()

		c.mu.Lock()
		defer c.mu.Unlock()
		c.sub = nil
		if sub == nil {
			return nil
		}
		if err := sub.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			return fmt.Errorf("failed to drain subscription: %w", err)
		}
		return nil
	}
}

// HandleMessage decodes one message and submits it.
// Malformed and rejected messages are logged and dropped.
func (c *Consumer) HandleMessage(ctx context.Context, data []byte) error {
	var event change.Event
	if err := json.Unmarshal(data, &event); err != nil {
		err = fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		c.logger.WarnContext(ctx, "dropping malformed change message",
			slog.Int("size", len(data)),
			logger.Error(err))
		return err
	}
	if event.ListingID == "" {
		event.ListingID = event.Listing.ID
	}

	if err := c.submitter.SubmitChange(ctx, event); err != nil {
		c.logger.WarnContext(ctx, "change event not submitted",
			logger.ListingID(event.ListingID),
			logger.Error(err))
		return err
	}
	return nil
}
