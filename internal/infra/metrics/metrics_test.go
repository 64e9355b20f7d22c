package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_CountsByRoutePattern(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/referral/validate/{code}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := HTTPRequests.WithLabelValues(http.MethodGet, "/api/referral/validate/{code}", "404")
	before := testutil.ToFloat64(counter)

	for _, code := range []string{"AAAA1111", "BBBB2222"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/referral/validate/"+code, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.InDelta(t, before+2, testutil.ToFloat64(counter), 0.001)
}

func TestHandler_ExposesCollectors(t *testing.T) {
	t.Parallel()

	DriftCorrections.Add(0)
	ReferralRewards.WithLabelValues(RewardIssued).Add(0)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shopledger_wallet_drift_corrections_total")
	assert.Contains(t, rec.Body.String(), "shopledger_referral_rewards_total")
}
