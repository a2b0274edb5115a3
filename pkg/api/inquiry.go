package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/mail"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/stockalert/pkg/clientip"
	"github.com/dmitrymomot/stockalert/pkg/logger"
)

// Inquiry is a public question about a listing.
type Inquiry struct {
	ID         uuid.UUID `json:"id"`
	ListingID  string    `json:"listing_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Message    string    `json:"message"`
	ClientIP   string    `json:"-"`
	ReceivedAt time.Time `json:"received_at"`
}

// InquirySink receives accepted inquiries, for example the seller's inbox.
type InquirySink interface {
	SubmitInquiry(ctx context.Context, inq Inquiry) error
}

// LogInquirySink records inquiries in the log only.
type LogInquirySink struct {
	Logger *slog.Logger
}

func (s LogInquirySink) SubmitInquiry(ctx context.Context, inq Inquiry) error {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	log.InfoContext(ctx, "inquiry received",
		logger.ListingID(inq.ListingID),
		slog.String("inquiry_id", inq.ID.String()),
		slog.Int("message_length", len(inq.Message)))
	return nil
}

// MemoryInquirySink keeps inquiries in memory.
type MemoryInquirySink struct {
	mu        sync.Mutex
	inquiries []Inquiry
}

func (s *MemoryInquirySink) SubmitInquiry(_ context.Context, inq Inquiry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inquiries = append(s.inquiries, inq)
	return nil
}

// Inquiries returns a copy of the received inquiries.
func (s *MemoryInquirySink) Inquiries() []Inquiry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Inquiry(nil), s.inquiries...)
}

type inquiryRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

const maxInquiryMessage = 4000

func (req inquiryRequest) validate() error {
	verr := ValidationError{}
	if strings.TrimSpace(req.Name) == "" {
		verr.add("name", "is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		verr.add("email", "must be a valid email address")
	}
	switch msg := strings.TrimSpace(req.Message); {
	case msg == "":
		verr.add("message", "is required")
	case len(msg) > maxInquiryMessage:
		verr.add("message", "is too long")
	}
	if len(verr) > 0 {
		return verr
	}
	return nil
}

func (h *handlers) createInquiry(w http.ResponseWriter, r *http.Request) {
	var req inquiryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body must be a JSON object", nil)
		return
	}
	if err := req.validate(); err != nil {
		writeValidation(w, err)
		return
	}

	inq := Inquiry{
		ID:         uuid.New(),
		ListingID:  chi.URLParam(r, "listingID"),
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Message:    strings.TrimSpace(req.Message),
		ClientIP:   clientip.GetIPFromContext(r.Context()),
		ReceivedAt: h.now(),
	}
	if err := h.inquiries.SubmitInquiry(r.Context(), inq); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to submit inquiry",
			logger.ListingID(inq.ListingID),
			logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "inquiry could not be submitted", nil)
		return
	}

	writeJSON(w, http.StatusCreated, inq)
}

type quotaResponse struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// inquiryQuota reports the caller's remaining inquiries without consuming one.
func (h *handlers) inquiryQuota(w http.ResponseWriter, r *http.Request) {
	key := inquiryKey(r)
	if key == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "client address is unknown", nil)
		return
	}

	status, err := h.inquiryLimit.Status(r.Context(), key)
	if err != nil {
		h.internalError(w, r, "failed to read inquiry quota", err)
		return
	}
	writeJSON(w, http.StatusOK, quotaResponse{
		Limit:     status.Limit,
		Remaining: status.Remaining,
		ResetAt:   status.ResetAt.UTC(),
	})
}

// resetInquiryLimit clears the inquiry window of one client address.
func (h *handlers) resetInquiryLimit(w http.ResponseWriter, r *http.Request) {
	addr, err := netip.ParseAddr(chi.URLParam(r, "clientIP"))
	if err != nil {
		writeValidation(w, ValidationError{"client_ip": {"must be an IP address"}})
		return
	}
	addr = addr.Unmap().WithZone("")

	if err := h.inquiryLimit.Reset(r.Context(), inquiryScope+":"+addr.String()); err != nil {
		h.internalError(w, r, "failed to reset inquiry limit", err)
		return
	}

	h.logger.InfoContext(r.Context(), "inquiry limit reset", slog.String("client_ip", addr.String()))
	w.WriteHeader(http.StatusNoContent)
}
