package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthz(t *testing.T) {
	ok := Handler(prometheus.NewRegistry(), All(func(context.Context) error { return nil }))
	rec := httptest.NewRecorder()
	ok.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	down := Handler(prometheus.NewRegistry(), All(nil, func(context.Context) error { return errors.New("redis") }))
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis")
}

func TestMetricsExposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewClient(reg)
	m.Polls.WithLabelValues("battle").Inc()
	m.TxSubmits.WithLabelValues("bet", "submitted").Inc()

	rec := httptest.NewRecorder()
	Handler(reg, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `battle_client_polls_total{resource="battle"} 1`)
	assert.Contains(t, rec.Body.String(), `battle_client_tx_submissions_total{op="bet",outcome="submitted"} 1`)
}
