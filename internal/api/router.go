package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/fastprodman/shopledger/internal/infra/metrics"
)

// NewRouter registers every endpoint under /api plus /healthz and /metrics.
// Cross-origin requests are allowed from corsOrigins only; an empty list
// disables CORS headers.
func NewRouter(svc Services, corsOrigins []string) http.Handler {
	h := &handler{svc: svc}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	if len(corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Use(requestLogger)
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Get("/referral/validate/{code}", h.ValidateCode)
		r.Get("/referral/settings", h.Settings)

		r.Group(func(r chi.Router) {
			r.Use(h.requireUser)

			r.Get("/auth/me", h.Me)
			r.Get("/wallet", h.Wallet)
			r.Get("/wallet/transactions", h.Transactions)
			r.Get("/referral/my-code", h.MyCode)
			r.Get("/referral/my-referrals", h.MyReferrals)

			r.Group(func(r chi.Router) {
				r.Use(requireStaff)

				r.Post("/wallet/admin/topup", h.TopUp)
				r.Post("/wallet/admin/adjust", h.Adjust)
				r.Get("/wallet/admin/all", h.AllWallets)
				r.Put("/referral/settings", h.UpdateSettings)
				r.Get("/referral/admin/all", h.AllReferrals)
			})
		})
	})

	return r
}
