package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/stockalert/pkg/change"
	"github.com/dmitrymomot/stockalert/pkg/logger"
	"github.com/dmitrymomot/stockalert/pkg/queue"
	"github.com/dmitrymomot/stockalert/pkg/subscribers"
)

// SubscriberResolver returns the enabled subscriptions of a listing.
type SubscriberResolver interface {
	Resolve(ctx context.Context, listingID string) ([]subscribers.Subscription, error)
}

// JobEnqueuer stores notification jobs.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, job *queue.Job) (bool, error)
}

// Report summarises one fan-out.
type Report struct {
	ListingID  string
	Category   change.Category
	Recipients int
	Enqueued   int
	Duplicates int
	Failures   error // errors.Join of per-subscriber failures
}

// Failed returns the number of subscribers whose job could not be enqueued.
func (r Report) Failed() int {
	return r.Recipients - r.Enqueued - r.Duplicates
}

// Service orchestrates change fan-out.
type Service struct {
	resolver      SubscriberResolver
	enqueuer      JobEnqueuer
	logger        *slog.Logger
	fanoutTimeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFanoutTimeout bounds a background fan-out.
func WithFanoutTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.fanoutTimeout = d
		}
	}
}

// NewService creates a fan-out service.
func NewService(resolver SubscriberResolver, enqueuer JobEnqueuer, opts ...ServiceOption) (*Service, error) {
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	if enqueuer == nil {
		return nil, ErrEnqueuerRequired
	}

	s := &Service{
		resolver:      resolver,
		enqueuer:      enqueuer,
		logger:        slog.Default(),
		fanoutTimeout: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("notifier"))
	return s, nil
}

// SubmitChange validates event and starts its fan-out in the background.
// Only validation errors and ErrServiceClosed are returned; fan-out failures
// are logged. The fan-out outlives ctx cancellation.
func (s *Service) SubmitChange(ctx context.Context, event change.Event) error {
	if err := event.Validate(); err != nil {
		s.logger.WarnContext(ctx, "rejected change event",
			logger.ListingID(event.ListingID),
			logger.Error(err))
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServiceClosed
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("fan-out panicked",
					logger.ListingID(event.ListingID),
					slog.Any("panic", r))
			}
		}()

		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fanoutTimeout)
		defer cancel()

		if _, err := s.Fanout(fctx, event); err != nil {
			s.logger.ErrorContext(fctx, "fan-out failed",
				logger.ListingID(event.ListingID),
				logger.Error(err))
		}
	}()

	return nil
}

// Fanout classifies event, resolves its subscribers and enqueues one job per
// subscriber. A failure for one subscriber does not stop the others; such
// failures are collected in Report.Failures. The returned error is set only
// when the event is invalid or subscribers cannot be resolved.
func (s *Service) Fanout(ctx context.Context, event change.Event) (Report, error) {
	if err := event.Validate(); err != nil {
		return Report{}, err
	}

	category := event.Classify()
	report := Report{ListingID: event.ListingID, Category: category}

	subs, err := s.resolver.Resolve(ctx, event.ListingID)
	if err != nil {
		return report, fmt.Errorf("failed to resolve subscribers: %w", err)
	}
	report.Recipients = len(subs)

	payload, err := json.Marshal(Payload{
		Listing:    event.Listing,
		Change:     category,
		OccurredAt: event.OccurredAt,
	})
	if err != nil {
		return report, fmt.Errorf("failed to encode payload: %w", err)
	}

	var failures []error
	for _, sub := range subs {
		inserted, err := s.enqueue(ctx, event, category, payload, sub)
		switch {
		case err != nil:
			failures = append(failures, fmt.Errorf("subscriber %s: %w", sub.SubscriberID, err))
			s.logger.WarnContext(ctx, "failed to enqueue notification",
				logger.ListingID(event.ListingID),
				logger.SubscriberID(sub.SubscriberID),
				logger.Error(err))
		case inserted:
			report.Enqueued++
		default:
			report.Duplicates++
		}
	}
	report.Failures = errors.Join(failures...)

	s.logger.InfoContext(ctx, "change fanned out",
		logger.ListingID(event.ListingID),
		slog.String("category", category.Kind()),
		slog.Int("recipients", report.Recipients),
		slog.Int("enqueued", report.Enqueued),
		slog.Int("duplicates", report.Duplicates),
		slog.Int("failed", len(failures)))

	return report, nil
}

func (s *Service) enqueue(ctx context.Context, event change.Event, category change.Category, payload []byte, sub subscribers.Subscription) (inserted bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while enqueuing: %v", r)
		}
	}()

	return s.enqueuer.Enqueue(ctx, &queue.Job{
		ID:         JobID(sub.Email, event.ListingID, category, *event.OldValue, event.NewValue),
		Kind:       KindOf(category),
		Recipient:  sub.Email,
		ListingID:  event.ListingID,
		Payload:    payload,
		OccurredAt: event.OccurredAt,
	})
}

// Close stops accepting changes and waits for running fan-outs or ctx.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
