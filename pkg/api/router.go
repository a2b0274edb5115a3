package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/stockalert/pkg/change"
	"github.com/dmitrymomot/stockalert/pkg/clientip"
	"github.com/dmitrymomot/stockalert/pkg/httpserver"
	"github.com/dmitrymomot/stockalert/pkg/logger"
	"github.com/dmitrymomot/stockalert/pkg/queue"
	"github.com/dmitrymomot/stockalert/pkg/ratelimit"
	"github.com/dmitrymomot/stockalert/pkg/subscribers"
)

// ChangeSubmitter accepts listing changes. notifier.Service implements it.
type ChangeSubmitter interface {
	SubmitChange(ctx context.Context, event change.Event) error
}

// SubscriptionStore manages subscriptions and their notification preference.
// subscribers.Store implements it.
type SubscriptionStore interface {
	Subscribe(ctx context.Context, sub subscribers.Subscription) error
	Unsubscribe(ctx context.Context, subscriberID, listingID string) error
	ToggleNotification(ctx context.Context, subscriberID, listingID string, enabled bool) error
	ToggleAllNotifications(ctx context.Context, subscriberID string, enabled bool) (int64, error)
}

// JobInspector reads queue state. queue.Inspector implements it.
type JobInspector interface {
	GetJob(ctx context.Context, id uuid.UUID) (*queue.Job, error)
	ListDeadLetters(ctx context.Context, limit int) ([]*queue.Job, error)
	Stats(ctx context.Context) (queue.Stats, error)
}

// Deps are the collaborators of the router.
type Deps struct {
	Submitter     ChangeSubmitter
	Subscriptions SubscriptionStore
	Jobs          JobInspector
	Inquiries     InquirySink
	InquiryLimit  *ratelimit.FixedWindow
	ClientIP      *clientip.Resolver
	Readiness     map[string]httpserver.CheckFunc
	ProbeTimeout  time.Duration
	Logger        *slog.Logger
}

type handlers struct {
	submitter     ChangeSubmitter
	subscriptions SubscriptionStore
	jobs          JobInspector
	inquiries     InquirySink
	inquiryLimit  *ratelimit.FixedWindow
	logger        *slog.Logger
	now           func() time.Time
}

// NewRouter builds the HTTP handler.
func NewRouter(d Deps) (http.Handler, error) {
	switch {
	case d.Submitter == nil:
		return nil, ErrSubmitterRequired
	case d.Subscriptions == nil:
		return nil, ErrSubscriptionsRequired
	case d.Jobs == nil:
		return nil, ErrInspectorRequired
	case d.Inquiries == nil:
		return nil, ErrInquirySinkRequired
	case d.InquiryLimit == nil:
		return nil, ErrLimiterRequired
	}

	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("api"))

	h := &handlers{
		submitter:     d.Submitter,
		subscriptions: d.Subscriptions,
		jobs:          d.Jobs,
		inquiries:     d.Inquiries,
		inquiryLimit:  d.InquiryLimit,
		logger:        log,
		now:           time.Now,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(clientip.Middleware(d.ClientIP))
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, d.ProbeTimeout, d.Readiness))

	r.Route("/api", func(r chi.Router) {
		r.Post("/changes", h.submitChange)

		r.With(ratelimit.Middleware(d.InquiryLimit, inquiryKey, ratelimit.WithOnLimitReached(rateLimited))).
			Post("/listings/{listingID}/inquiries", h.createInquiry)

		r.Route("/inquiry-limits", func(r chi.Router) {
			r.Get("/me", h.inquiryQuota)
			r.Delete("/{clientIP}", h.resetInquiryLimit)
		})

		r.Route("/subscribers/{subscriberID}", func(r chi.Router) {
			r.Put("/notifications", h.toggleAll)
			r.Put("/listings/{listingID}", h.subscribe)
			r.Delete("/listings/{listingID}", h.unsubscribe)
			r.Put("/listings/{listingID}/notifications", h.toggleOne)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/stats", h.jobStats)
			r.Get("/dead-letter", h.deadLetters)
			r.Get("/{jobID}", h.getJob)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})

	return r, nil
}

const inquiryScope = "inquiry"

// inquiryKey scopes the inquiry limit to the client IP.
var inquiryKey = ratelimit.Composite(ratelimit.Static(inquiryScope), ratelimit.ClientIP)

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.DebugContext(r.Context(), "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.String("client_ip", clientip.GetIPFromContext(r.Context())),
				logger.Duration(time.Since(start)))
		})
	}
}
