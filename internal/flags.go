// Package internal holds the process-wide configuration surface: flag
// definitions with environment-variable fallback, and the environment gate
// run before any command.
package internal

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Configuration values populated from flags, falling back to environment
// variables at registration time.
var (
	Env      = "dev"
	LogLevel = "info"

	Host    = "localhost"
	Port    uint
	OpsPort uint

	ClientIdleMS    uint = 8000
	ServerSessionMS uint = 20000
	TimerPolicy          = "accepted"
)

// Flag binds one configuration value to a cobra flag and an environment
// variable. Exactly one of String or Uint is set.
type Flag struct {
	Name   string
	EnvVar string
	Usage  string

	String *string
	Uint   *uint
}

// Flag definitions.
var (
	EnvFlag = Flag{
		Name: "env", EnvVar: "SUDP_ENV",
		Usage:  "deployment environment (dev|prod)",
		String: &Env,
	}
	LogLevelFlag = Flag{
		Name: "log-level", EnvVar: "SUDP_LOG_LEVEL",
		Usage:  "log level (trace|debug|info|warn|error)",
		String: &LogLevel,
	}
	HostFlag = Flag{
		Name: "host", EnvVar: "SUDP_HOST",
		Usage:  "server hostname to connect to",
		String: &Host,
	}
	PortFlag = Flag{
		Name: "port", EnvVar: "SUDP_PORT",
		Usage: "protocol UDP port",
		Uint:  &Port,
	}
	OpsPortFlag = Flag{
		Name: "ops-port", EnvVar: "SUDP_OPS_PORT",
		Usage: "HTTP port for /healthz and /metrics (0 disables)",
		Uint:  &OpsPort,
	}
	ClientIdleMSFlag = Flag{
		Name: "idle-ms", EnvVar: "SUDP_CLIENT_IDLE_MS",
		Usage: "client idle timeout in milliseconds",
		Uint:  &ClientIdleMS,
	}
	ServerSessionMSFlag = Flag{
		Name: "session-ms", EnvVar: "SUDP_SERVER_SESSION_MS",
		Usage: "server per-session idle timeout in milliseconds",
		Uint:  &ServerSessionMS,
	}
	TimerPolicyFlag = Flag{
		Name: "timer-policy", EnvVar: "SUDP_TIMER_POLICY",
		Usage:  "idle timer reset policy (accepted|any)",
		String: &TimerPolicy,
	}
)

// RegisterCommandFlags registers the flags on the command, applying any
// environment-variable value as the default first so the command line still
// wins.
func RegisterCommandFlags(cmd *cobra.Command, flags []*Flag) error {
	for _, f := range flags {
		if err := f.applyEnv(); err != nil {
			return errors.Wrapf(err, "apply env for flag %s failed", f.Name)
		}
		switch {
		case f.String != nil:
			cmd.PersistentFlags().StringVar(f.String, f.Name, *f.String, f.Usage)
		case f.Uint != nil:
			cmd.PersistentFlags().UintVar(f.Uint, f.Name, *f.Uint, f.Usage)
		default:
			return errors.Errorf("flag %s has no target", f.Name)
		}
	}
	return nil
}

func (f *Flag) applyEnv() error {
	v, ok := os.LookupEnv(f.EnvVar)
	if !ok || v == "" {
		return nil
	}
	switch {
	case f.String != nil:
		*f.String = v
	case f.Uint != nil:
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return errors.Wrapf(err, "parse %s=%q failed", f.EnvVar, v)
		}
		*f.Uint = uint(n)
	}
	return nil
}
