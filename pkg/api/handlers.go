package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/stockalert/pkg/change"
	"github.com/dmitrymomot/stockalert/pkg/logger"
	"github.com/dmitrymomot/stockalert/pkg/notifier"
	"github.com/dmitrymomot/stockalert/pkg/queue"
	"github.com/dmitrymomot/stockalert/pkg/subscribers"
)

const maxListLimit = 500

func (h *handlers) submitChange(w http.ResponseWriter, r *http.Request) {
	var event change.Event
	if err := decodeJSON(w, r, &event); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body must be a change event", nil)
		return
	}
	if event.ListingID == "" {
		event.ListingID = event.Listing.ID
	}

	err := h.submitter.SubmitChange(r.Context(), event)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"listing_id": event.ListingID})
	case errors.Is(err, change.ErrInvalidEvent):
		writeError(w, http.StatusBadRequest, "invalid_event", err.Error(), nil)
	case errors.Is(err, notifier.ErrServiceClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", "service is shutting down", nil)
	default:
		h.logger.ErrorContext(r.Context(), "failed to submit change", logger.ListingID(event.ListingID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "change could not be submitted", nil)
	}
}

type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *handlers) decodeToggle(w http.ResponseWriter, r *http.Request) (bool, bool) {
	var req toggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body must be a JSON object", nil)
		return false, false
	}
	if req.Enabled == nil {
		writeValidation(w, ValidationError{"enabled": {"is required"}})
		return false, false
	}
	return *req.Enabled, true
}

func (h *handlers) toggleOne(w http.ResponseWriter, r *http.Request) {
	enabled, ok := h.decodeToggle(w, r)
	if !ok {
		return
	}
	subscriberID := chi.URLParam(r, "subscriberID")
	listingID := chi.URLParam(r, "listingID")

	err := h.subscriptions.ToggleNotification(r.Context(), subscriberID, listingID, enabled)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"subscriber_id":         subscriberID,
			"listing_id":            listingID,
			"notifications_enabled": enabled,
		})
	case errors.Is(err, subscribers.ErrSubscriptionNotFound):
		writeError(w, http.StatusNotFound, "not_found", "subscription not found", nil)
	default:
		h.logger.ErrorContext(r.Context(), "failed to toggle notification",
			logger.SubscriberID(subscriberID), logger.ListingID(listingID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "preference could not be saved", nil)
	}
}

func (h *handlers) toggleAll(w http.ResponseWriter, r *http.Request) {
	enabled, ok := h.decodeToggle(w, r)
	if !ok {
		return
	}
	subscriberID := chi.URLParam(r, "subscriberID")

	n, err := h.subscriptions.ToggleAllNotifications(r.Context(), subscriberID, enabled)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to toggle notifications",
			logger.SubscriberID(subscriberID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "preferences could not be saved", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": n, "notifications_enabled": enabled})
}

func (h *handlers) jobStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.jobs.Stats(r.Context())
	if err != nil {
		h.internalError(w, r, "failed to count jobs", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"states": stats, "total": stats.Total()})
}

func (h *handlers) deadLetters(w http.ResponseWriter, r *http.Request) {
	limit := queue.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxListLimit {
			writeValidation(w, ValidationError{"limit": {"must be between 1 and " + strconv.Itoa(maxListLimit)}})
			return
		}
		limit = n
	}

	jobs, err := h.jobs.ListDeadLetters(r.Context(), limit)
	if err != nil {
		h.internalError(w, r, "failed to list dead letters", err)
		return
	}
	if jobs == nil {
		jobs = []*queue.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (h *handlers) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		writeValidation(w, ValidationError{"job_id": {"must be a UUID"}})
		return
	}

	job, err := h.jobs.GetJob(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, job)
	case errors.Is(err, queue.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "not_found", "job not found", nil)
	default:
		h.internalError(w, r, "failed to get job", err)
	}
}

func (h *handlers) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg, logger.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
}

func writeValidation(w http.ResponseWriter, err error) {
	var verr ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "request is invalid", verr)
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
}
