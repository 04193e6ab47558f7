// Package httputil holds the request decoding and response writing shared by
// the API handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

const dateLayout = "2006-01-02"

type ErrorResponse struct {
	Error   string          `json:"error"`
	Reasons []apperr.Reason `json:"reasons,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteError maps the apperr kinds to status codes. Anything else is a 500
// whose detail stays in the log.
func WriteError(w http.ResponseWriter, err error) {
	var verr *apperr.ValidationError

	switch {
	case errors.As(err, &verr):
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Reasons: verr.Reasons})
	case errors.Is(err, apperr.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperr.ErrIntegrity):
		WriteJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperr.ErrStorageUnavailable):
		WriteJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "storage unavailable"})
		slog.Error("storage unavailable", "error", err)
	default:
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		slog.Error("request failed", "error", err)
	}
}

func BadRequest(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg})
}

// Decode reads a JSON body into dst. It writes a 400 and returns false when
// the body is malformed.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		BadRequest(w, "invalid request body: "+err.Error())
		return false
	}

	return true
}

// DateRange reads the optional startDate and endDate query parameters. Both
// or neither must be present; nil means no range.
func DateRange(r *http.Request) (*record.DateRange, error) {
	start, end := r.URL.Query().Get("startDate"), r.URL.Query().Get("endDate")
	if start == "" && end == "" {
		return nil, nil
	}

	var reasons []apperr.Reason

	for _, p := range [][2]string{{"startDate", start}, {"endDate", end}} {
		if _, err := time.Parse(dateLayout, p[1]); err != nil {
			reasons = append(reasons, apperr.Reason{Field: p[0], Rule: "datetime", Message: "must be a YYYY-MM-DD date"})
		}
	}

	if len(reasons) > 0 {
		return nil, apperr.Invalid("query", reasons...)
	}

	return &record.DateRange{Start: start, End: end}, nil
}

// Int reads an integer query parameter, falling back to def when absent.
func Int(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperr.Invalid("query", apperr.Reason{Field: name, Rule: "number", Message: "must be a whole number"})
	}

	return n, nil
}

// Bool reads an optional boolean query parameter.
func Bool(r *http.Request, name string) (*bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}

	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, apperr.Invalid("query", apperr.Reason{Field: name, Rule: "boolean", Message: "must be true or false"})
	}

	return &b, nil
}

// Found turns the (value, found, err) lookups of the repositories into a
// response: 404 when missing, the value otherwise.
func Found[T any](w http.ResponseWriter, entity, id string, v T, found bool, err error) {
	if err != nil {
		WriteError(w, err)
		return
	}

	if !found {
		WriteError(w, apperr.NotFound(entity, id))
		return
	}

	WriteJSON(w, http.StatusOK, v)
}
