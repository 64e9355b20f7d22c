package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/infra/metrics"
	"github.com/fastprodman/shopledger/internal/repos/identities"
)

type ctxKey struct{}

var (
	errMissingToken = errs.New(errs.ErrUnauthenticated, "missing bearer token")
	errStaffOnly    = errs.New(errs.ErrForbidden, "admin access required")
)

func withIdentity(ctx context.Context, i identities.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, i)
}

// identityFrom returns the identity set by requireUser.
func identityFrom(ctx context.Context) (identities.Identity, bool) {
	i, ok := ctx.Value(ctxKey{}).(identities.Identity)

	return i, ok
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"route", metrics.RoutePattern(r),
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

func (h *handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeServiceError(w, r, errMissingToken)
			return
		}

		identity, err := h.svc.Auth.Authenticate(r.Context(), token)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
	})
}

// requireStaff must run after requireUser.
func requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFrom(r.Context())
		if !ok || !identity.Role.IsStaff() {
			writeServiceError(w, r, errStaffOnly)
			return
		}

		next.ServeHTTP(w, r)
	})
}
