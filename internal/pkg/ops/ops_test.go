package ops

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"sudp/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(NewRouter(prometheus.NewRegistry()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close() // nolint: errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsExposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.SessionsOpened.Inc()

	srv := httptest.NewServer(NewRouter(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close() // nolint: errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
