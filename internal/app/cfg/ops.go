package cfg

import (
	"sudp/internal"
	"sudp/internal/app/apps"
)

// OpsPortCfg is configuration for the optional ops HTTP listener.
type OpsPortCfg struct {
	port uint16
}

// NewOpsPortCfg creates a new OpsPortCfg from the given config.
func NewOpsPortCfg(port uint16) *OpsPortCfg {
	return &OpsPortCfg{
		port: port,
	}
}

// OpsPortFromEnv creates a new OpsPortCfg from the current environment.
func OpsPortFromEnv() *OpsPortCfg {
	return &OpsPortCfg{
		port: uint16(internal.OpsPort),
	}
}

// ApplyClientApp applies the OpsPortCfg to a ClientApp.
func (cfg OpsPortCfg) ApplyClientApp(app *apps.ClientApp) error {
	app.OpsPort = cfg.port
	return nil
}

// ApplyServerApp applies the OpsPortCfg to a ServerApp.
func (cfg OpsPortCfg) ApplyServerApp(app *apps.ServerApp) error {
	app.OpsPort = cfg.port
	return nil
}
