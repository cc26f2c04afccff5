package cfg

import (
	"time"

	"sudp/internal"
	"sudp/internal/app/apps"
)

// TimeoutCfg is configuration for the idle timeouts: the client's single
// outstanding idle window and the server's per-session reaping window.
type TimeoutCfg struct {
	clientIdle    time.Duration
	serverSession time.Duration
}

// NewTimeoutCfg creates a new TimeoutCfg from the given config.
func NewTimeoutCfg(clientIdle, serverSession time.Duration) *TimeoutCfg {
	return &TimeoutCfg{
		clientIdle:    clientIdle,
		serverSession: serverSession,
	}
}

// TimeoutsFromEnv creates a new TimeoutCfg from the current environment.
func TimeoutsFromEnv() *TimeoutCfg {
	return &TimeoutCfg{
		clientIdle:    time.Duration(internal.ClientIdleMS) * time.Millisecond,
		serverSession: time.Duration(internal.ServerSessionMS) * time.Millisecond,
	}
}

// ApplyClientApp applies the TimeoutCfg to a ClientApp.
func (cfg TimeoutCfg) ApplyClientApp(app *apps.ClientApp) error {
	app.IdleTimeout = cfg.clientIdle
	return nil
}

// ApplyServerApp applies the TimeoutCfg to a ServerApp.
func (cfg TimeoutCfg) ApplyServerApp(app *apps.ServerApp) error {
	app.SessionTimeout = cfg.serverSession
	return nil
}
