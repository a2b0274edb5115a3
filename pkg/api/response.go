package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrymomot/stockalert/pkg/ratelimit"
)

// Response is the JSON envelope of every API response.
type Response struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

// ValidationError maps request fields to their problems.
type ValidationError map[string][]string

func (v ValidationError) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}

func (v ValidationError) add(field, msg string) {
	v[field] = append(v[field], msg)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string][]string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Error: &ErrorDetail{Code: code, Message: message, Details: details}})
}

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from r into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// rateLimited writes the rejection of a request over its rate limit.
func rateLimited(w http.ResponseWriter, _ *http.Request, result *ratelimit.Result) {
	writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests, retry later", map[string][]string{
		"retry_after": {strconv.Itoa(ratelimit.RetryAfterSeconds(result))},
	})
}
