package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fastprodman/shopledger/internal/errs"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}

		return name
	})

	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps an error kind to its status. Messages of 5xx
// responses are never taken from the error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	switch {
	case status < http.StatusInternalServerError:
		msg := errs.Message(err)
		if msg == "" {
			msg = http.StatusText(status)
		}

		writeError(w, status, msg)
	case errors.Is(err, context.Canceled):
		slog.WarnContext(r.Context(), "request canceled", "route", r.URL.Path, "error", err)
		writeError(w, status, "request canceled")
	case status == http.StatusServiceUnavailable:
		slog.ErrorContext(r.Context(), "dependency unavailable", "route", r.URL.Path, "error", err)
		writeError(w, status, "service unavailable")
	default:
		slog.ErrorContext(r.Context(), "request failed", "route", r.URL.Path, "error", err)
		writeError(w, status, "internal error")
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrUnavailable), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func invalid(format string, args ...any) error {
	return errs.New(errs.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// decodeJSON reads a size-capped body into dst, rejecting unknown fields,
// and runs the struct validation tags.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close() //nolint:errcheck

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return invalid("empty body")
		}

		return invalid("invalid JSON")
	}

	err = validate.Struct(dst)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return invalid("%s failed %q validation", verrs[0].Field(), verrs[0].Tag())
		}

		return invalid("invalid request")
	}

	return nil
}

// pageParams reads ?limit and ?skip. Absent values are 0; the services apply
// defaults and bounds.
func pageParams(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()

	limit, err = intParam(q.Get("limit"), "limit")
	if err != nil {
		return 0, 0, err
	}

	offset, err = intParam(q.Get("skip"), "skip")
	if err != nil {
		return 0, 0, err
	}

	return limit, offset, nil
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid("%s must be an integer", name)
	}

	return n, nil
}
