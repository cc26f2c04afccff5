package apps

import (
	"context"
	"os"
	"time"

	"sudp/internal"
	"sudp/internal/pkg/client"
	"sudp/internal/pkg/ops"
	"sudp/internal/pkg/validate"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// ClientAppCfg configures a ClientApp.
type ClientAppCfg interface {
	ApplyClientApp(*ClientApp) error
}

// ClientApp is the interactive protocol client application.
type ClientApp struct {
	Host        string        `validate:"required"`
	Port        uint16        `validate:"required"`
	IdleTimeout time.Duration `validate:"required"`
	OpsPort     uint16
}

// NewClientApp creates a new ClientApp.
func NewClientApp(cfgs ...ClientAppCfg) (*ClientApp, error) {
	app := &ClientApp{}
	for _, cfg := range cfgs {
		if err := cfg.ApplyClientApp(app); err != nil {
			return nil, errors.Wrap(err, "apply ClientApp cfg failed")
		}
	}
	if app.Host == "" {
		app.Host = internal.Host
	}
	if app.Port == 0 {
		app.Port = uint16(internal.Port)
	}
	if app.IdleTimeout == 0 {
		app.IdleTimeout = time.Duration(internal.ClientIdleMS) * time.Millisecond
	}
	if err := validate.Validate().Struct(app); err != nil {
		return nil, errors.Wrap(err, "validate ClientApp failed")
	}
	return app, nil
}

func (app *ClientApp) Run(ctx context.Context, args []string) error {
	if app.OpsPort != 0 {
		go func() {
			if err := ops.Serve(ctx, app.OpsPort, prometheus.NewRegistry()); err != nil {
				logger.WithError(err).Error("ops server failed")
			}
		}()
	}
	cfgs := []client.Cfg{
		client.WithServer(app.Host, app.Port),
		client.WithIdleTimeout(app.IdleTimeout),
	}
	if interactiveStdin() {
		cfgs = append(cfgs, client.WithInteractive())
	}
	c, err := client.NewClient(cfgs...)
	if err != nil {
		return errors.Wrap(err, "create client failed")
	}
	if err := c.Connect(ctx); err != nil {
		return errors.Wrap(err, "connect client failed")
	}
	return errors.Wrap(c.Run(ctx), "run client failed")
}

// interactiveStdin reports whether stdin is a terminal rather than a pipe or
// a file.
func interactiveStdin() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
