// Package ops serves the operational HTTP surface: health and metrics.
package ops

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

const shutdownGrace = 5 * time.Second

// NewRouter builds the ops router: GET /healthz and GET /metrics.
func NewRouter(g prometheus.Gatherer) chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return r
}

// Serve runs the ops listener until the context is cancelled.
func Serve(ctx context.Context, port uint16, g prometheus.Gatherer) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: NewRouter(g),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("ops server shutdown failed")
		}
	}()
	logger.WithField("addr", srv.Addr).Info("ops server listening")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve ops failed")
	}
	return nil
}
