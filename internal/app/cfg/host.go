package cfg

import (
	"sudp/internal"
	"sudp/internal/app/apps"
)

// HostCfg is configuration for the server hostname a client connects to.
type HostCfg struct {
	host string
}

// NewHostCfg creates a new HostCfg from the given config.
func NewHostCfg(host string) *HostCfg {
	return &HostCfg{
		host: host,
	}
}

// HostFromEnv creates a new HostCfg from the current environment.
func HostFromEnv() *HostCfg {
	return &HostCfg{
		host: internal.Host,
	}
}

// ApplyClientApp applies the HostCfg to a ClientApp.
func (cfg HostCfg) ApplyClientApp(app *apps.ClientApp) error {
	app.Host = cfg.host
	return nil
}
