package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"cityos/internal/domain"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, error, details string) {
	writeJSON(w, statusCode, ErrorResponse{Error: error, Details: details})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var fields domain.FieldErrors
	switch {
	case errors.As(err, &fields):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// message strips the sentinel prefix from domain errors
func message(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{domain.ErrInvalid, domain.ErrNotFound} {
		msg = strings.TrimPrefix(msg, sentinel.Error()+": ")
	}
	return msg
}

// writeDomainError reports validation and lookup failures by their message
// and anything else as failure with details
func writeDomainError(w http.ResponseWriter, err error, failure string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, failure, err.Error())
		return
	}
	writeError(w, status, message(err), "")
}

// decodeJSON reads a JSON request body into v
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}

// queryInt parses an integer query parameter, falling back to def
func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}

// queryList splits a comma separated query parameter, dropping blanks.
// A missing parameter yields nil.
func queryList(r *http.Request, key string) []string {
	raw, ok := r.URL.Query()[key]
	if !ok {
		return nil
	}
	out := []string{}
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
