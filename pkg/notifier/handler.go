package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/stockalert/pkg/change"
	"github.com/dmitrymomot/stockalert/pkg/email"
	"github.com/dmitrymomot/stockalert/pkg/logger"
	"github.com/dmitrymomot/stockalert/pkg/queue"
)

// DeliveryHandler sends notification jobs through an email.Sender.
type DeliveryHandler struct {
	sender    email.Sender
	freshness *FreshnessTracker
	logger    *slog.Logger
}

// HandlerOption configures a DeliveryHandler.
type HandlerOption func(*DeliveryHandler)

// WithFreshnessTracker sets the tracker used to drop superseded jobs.
func WithFreshnessTracker(t *FreshnessTracker) HandlerOption {
	return func(h *DeliveryHandler) {
		if t != nil {
			h.freshness = t
		}
	}
}

// WithHandlerLogger sets the handler logger.
func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *DeliveryHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewDeliveryHandler creates a handler delivering through sender.
func NewDeliveryHandler(sender email.Sender, opts ...HandlerOption) (*DeliveryHandler, error) {
	if sender == nil {
		return nil, ErrSenderRequired
	}

	h := &DeliveryHandler{
		sender:    sender,
		freshness: NewFreshnessTracker(DefaultFreshnessCapacity),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(logger.Component("notifier.delivery"))
	return h, nil
}

// Register attaches the handler to every notification kind of w.
func (h *DeliveryHandler) Register(w *queue.Worker) error {
	for _, kind := range []queue.Kind{queue.KindInventoryChange, queue.KindPriceChange} {
		if err := w.RegisterHandler(kind, h); err != nil {
			return err
		}
	}
	return nil
}

// Handle implements queue.Handler.
func (h *DeliveryHandler) Handle(ctx context.Context, job *queue.Job) error {
	p, err := DecodePayload(job)
	if err != nil {
		return err
	}

	key := FreshnessKey(job.Recipient, job.ListingID, p.Change.Attribute())
	if h.freshness.IsStale(key, p.OccurredAt) {
		h.logger.InfoContext(ctx, "skipping superseded notification",
			logger.JobID(job.ID),
			logger.ListingID(job.ListingID),
			slog.Time("occurred_at", p.OccurredAt))
		return queue.ErrSkipped
	}

	data, err := templateData(p)
	if err != nil {
		return fmt.Errorf("%w: job %s: %w", ErrInvalidPayload, job.ID, err)
	}

	messageID, err := h.sender.Send(ctx, email.Message{
		Template: string(job.Kind),
		To:       job.Recipient,
		Data:     data,
		Tag:      p.Change.Kind(),
	})
	if err != nil {
		return err
	}

	h.freshness.Record(key, p.OccurredAt)
	h.logger.DebugContext(ctx, "notification sent",
		logger.JobID(job.ID),
		logger.Recipient(job.Recipient),
		slog.String("message_id", messageID))

	return nil
}

// templateData flattens a payload into the email template model.
func templateData(p Payload) (map[string]any, error) {
	data := map[string]any{
		"listing_id":      p.Listing.ID,
		"listing_title":   p.Listing.Title,
		"listing_url":     p.Listing.URL,
		"seller_name":     p.Listing.SellerName,
		"unit_price":      p.Listing.UnitPrice,
		"units_available": p.Listing.UnitsAvailable,
		"occurred_at":     p.OccurredAt.Format(time.RFC3339),
		"category":        p.Change.Kind(),
	}
	if len(p.Listing.Details) > 0 {
		data["details"] = p.Listing.Details
	}

	switch c := p.Change.(type) {
	case change.InventoryChange:
		data["status"] = string(c.Status)
		data["old_count"] = c.OldCount
		data["new_count"] = c.NewCount
		data["delta"] = c.Delta()
	case change.PriceChange:
		data["old_price"] = c.OldPrice
		data["new_price"] = c.NewPrice
		data["difference"] = c.Difference
		data["is_decrease"] = c.IsDecrease
		if c.PercentChange != nil {
			data["percent_change"] = *c.PercentChange
		}
	default:
		return nil, fmt.Errorf("unsupported change category %T", p.Change)
	}

	return data, nil
}
