package apps

import (
	"context"
	"time"

	"sudp/internal"
	"sudp/internal/pkg/metrics"
	"sudp/internal/pkg/ops"
	"sudp/internal/pkg/server"
	"sudp/internal/pkg/session"
	"sudp/internal/pkg/validate"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// ServerAppCfg configures a ServerApp.
type ServerAppCfg interface {
	ApplyServerApp(*ServerApp) error
}

// ServerApp is the protocol server application.
type ServerApp struct {
	Port           uint16        `validate:"required"`
	SessionTimeout time.Duration `validate:"required"`
	TimerPolicy    string        `validate:"required"`
	OpsPort        uint16
}

// NewServerApp creates a new ServerApp.
func NewServerApp(cfgs ...ServerAppCfg) (*ServerApp, error) {
	app := &ServerApp{}
	for _, cfg := range cfgs {
		if err := cfg.ApplyServerApp(app); err != nil {
			return nil, errors.Wrap(err, "apply ServerApp cfg failed")
		}
	}
	if app.Port == 0 {
		app.Port = uint16(internal.Port)
	}
	if app.SessionTimeout == 0 {
		app.SessionTimeout = time.Duration(internal.ServerSessionMS) * time.Millisecond
	}
	if app.TimerPolicy == "" {
		app.TimerPolicy = internal.TimerPolicy
	}
	if err := validate.Validate().Struct(app); err != nil {
		return nil, errors.Wrap(err, "validate ServerApp failed")
	}
	return app, nil
}

func (app *ServerApp) Run(ctx context.Context, args []string) error {
	policy, err := session.ParseTimerPolicy(app.TimerPolicy)
	if err != nil {
		return errors.Wrap(err, "parse timer policy failed")
	}
	reg := prometheus.NewRegistry()
	if app.OpsPort != 0 {
		go func() {
			if err := ops.Serve(ctx, app.OpsPort, reg); err != nil {
				logger.WithError(err).Error("ops server failed")
			}
		}()
	}
	srv, err := server.NewServer(
		server.WithPort(app.Port),
		server.WithSessionTimeout(app.SessionTimeout),
		server.WithTimerPolicy(policy),
		server.WithMetrics(metrics.New(reg)),
	)
	if err != nil {
		return errors.Wrap(err, "create server failed")
	}
	return errors.Wrap(srv.Run(ctx), "run server failed")
}
