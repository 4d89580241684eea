package health

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cryptosim/internal/modules/health/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadyzFollowsState(t *testing.T) {
	st := service.NewState()
	mux := NewMux(st)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	st.SetReady(true)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthzReportsMarketState(t *testing.T) {
	st := service.NewState()
	st.SetUsingFallback(true)
	st.TouchRefresh(time.Unix(1700000000, 0))
	mux := NewMux(st)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"usingFallback":true`)
	assert.Contains(t, rec.Body.String(), `"lastRefreshUnix":1700000000`)
}

func TestMetricsEndpoint(t *testing.T) {
	mux := NewMux(service.NewState())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cryptosim_credits")
}
