// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/shopledger/internal/shared"
)

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type   string            `json:"type,omitempty"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// ValidationProblem sends a 400 response listing offending fields.
func ValidationProblem(w http.ResponseWriter, verr *shared.ValidationError) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(ProblemDetail{
		Title:  "Validation Failed",
		Status: http.StatusBadRequest,
		Detail: verr.Error(),
		Fields: verr.Fields,
	})
}

// DecodeJSON decodes the request body into target, rejecting unknown fields.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

// IDParam reads a positive integer URL parameter.
func IDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

// IntQuery reads an optional integer query parameter.
func IntQuery(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// RangeQuery resolves period, from and to query parameters into a date range.
func RangeQuery(r *http.Request, now time.Time) (shared.DateRange, error) {
	q := r.URL.Query()
	period, err := shared.ParsePeriod(q.Get("period"))
	if err != nil {
		return shared.DateRange{}, err
	}
	from, err := shared.ParseDay(q.Get("from"))
	if err != nil {
		return shared.DateRange{}, err
	}
	to, err := shared.ParseDay(q.Get("to"))
	if err != nil {
		return shared.DateRange{}, err
	}
	if period == shared.PeriodDaily && q.Get("period") == "" && !from.IsZero() && !to.IsZero() {
		period = shared.PeriodCustom
	}
	return shared.ResolveRange(period, from, to, now)
}
