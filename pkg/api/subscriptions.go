package api

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/stockalert/pkg/logger"
	"github.com/dmitrymomot/stockalert/pkg/subscribers"
)

type subscribeRequest struct {
	Email string `json:"email"`
}

func (req subscribeRequest) validate() error {
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return ValidationError{"email": {"must be a valid email address"}}
	}
	return nil
}

// subscribe creates the subscription, or refreshes its email when it exists.
// Notifications of a new subscription start enabled.
func (h *handlers) subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body must be a JSON object", nil)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := req.validate(); err != nil {
		writeValidation(w, err)
		return
	}

	sub := subscribers.Subscription{
		SubscriberID: chi.URLParam(r, "subscriberID"),
		ListingID:    chi.URLParam(r, "listingID"),
		Email:        req.Email,
	}

	err := h.subscriptions.Subscribe(r.Context(), sub)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]string{
			"subscriber_id": sub.SubscriberID,
			"listing_id":    sub.ListingID,
			"email":         sub.Email,
		})
	case errors.Is(err, subscribers.ErrInvalidSubscription):
		writeError(w, http.StatusBadRequest, "invalid_subscription", err.Error(), nil)
	default:
		h.logger.ErrorContext(r.Context(), "failed to subscribe",
			logger.SubscriberID(sub.SubscriberID), logger.ListingID(sub.ListingID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "subscription could not be saved", nil)
	}
}

func (h *handlers) unsubscribe(w http.ResponseWriter, r *http.Request) {
	subscriberID := chi.URLParam(r, "subscriberID")
	listingID := chi.URLParam(r, "listingID")

	err := h.subscriptions.Unsubscribe(r.Context(), subscriberID, listingID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, subscribers.ErrSubscriptionNotFound):
		writeError(w, http.StatusNotFound, "not_found", "subscription not found", nil)
	default:
		h.logger.ErrorContext(r.Context(), "failed to unsubscribe",
			logger.SubscriberID(subscriberID), logger.ListingID(listingID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "subscription could not be removed", nil)
	}
}
